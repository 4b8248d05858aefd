package normalize_test

import (
	"errors"
	"testing"

	"github.com/okian/medalboard/internal/domain/model"
	"github.com/okian/medalboard/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

var header = []string{"NOC", "Year", "Gold", "Silver", "Bronze", "Total"}

func TestCountryFromNOC(t *testing.T) {
	Convey("Given NOC values", t, func() {
		Convey("When the value has a trailing parenthesized code", func() {
			country, ok := normalize.CountryFromNOC("China (CHN)")

			Convey("Then the country is the text before it", func() {
				So(ok, ShouldBeTrue)
				So(country, ShouldEqual, "China")
			})
		})

		Convey("When the name itself contains spaces and parentheses", func() {
			country, ok := normalize.CountryFromNOC("Korea, Republic of (KOR) (x)")

			Convey("Then only the first separator counts", func() {
				So(ok, ShouldBeTrue)
				So(country, ShouldEqual, "Korea, Republic of")
			})
		})

		Convey("When the pattern is missing", func() {
			for _, noc := range []string{"Chinese Taipei", "India(IND)", ""} {
				country, ok := normalize.CountryFromNOC(noc)
				So(ok, ShouldBeFalse)
				So(country, ShouldEqual, "")
			}
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given a fetched sheet", t, func() {
		Convey("When every row is well formed", func() {
			table, err := normalize.Normalize(model.Sheet{
				Header: header,
				Rows: [][]string{
					{"China (CHN)", "2018", "3", "1", "0", "4"},
					{"Japan (JPN)", "2018.0", "1", "2", "1", "4"},
				},
			})

			Convey("Then records are typed and the country derived", func() {
				So(err, ShouldBeNil)
				So(table.Len(), ShouldEqual, 2)
				So(table.Records[0], ShouldResemble, model.Record{
					NOC: "China (CHN)", Country: "China", HasCountry: true,
					Year: 2018, Gold: 3, Silver: 1, Bronze: 0, Total: 4,
				})
				So(table.Records[1].Year, ShouldEqual, 2018)
				So(table.Records[1].Country, ShouldEqual, "Japan")
			})
		})

		Convey("When some rows are entirely blank", func() {
			table, err := normalize.Normalize(model.Sheet{
				Header: header,
				Rows: [][]string{
					{"", "", "", "", "", ""},
					{"China (CHN)", "2018", "3", "1", "0", "4"},
					{},
					{"  ", " "},
				},
			})

			Convey("Then they are dropped", func() {
				So(err, ShouldBeNil)
				So(table.Len(), ShouldEqual, 1)
			})
		})

		Convey("When a NOC does not match the pattern", func() {
			table, err := normalize.Normalize(model.Sheet{
				Header: header,
				Rows:   [][]string{{"Unknown", "2018", "1", "0", "0", "1"}},
			})

			Convey("Then the row is kept with an undefined country", func() {
				So(err, ShouldBeNil)
				So(table.Len(), ShouldEqual, 1)
				So(table.Records[0].HasCountry, ShouldBeFalse)
			})
		})

		Convey("When a year is not numeric", func() {
			_, err := normalize.Normalize(model.Sheet{
				Header: header,
				Rows: [][]string{
					{"China (CHN)", "2018", "3", "1", "0", "4"},
					{"Japan (JPN)", "twenty", "1", "2", "1", "4"},
				},
			})

			Convey("Then the load fails with a LoadError naming the row", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, normalize.ErrLoad), ShouldBeTrue)
				So(errors.Is(err, normalize.ErrInvalidYear), ShouldBeTrue)
				var le *normalize.LoadError
				So(errors.As(err, &le), ShouldBeTrue)
				So(le.Row, ShouldEqual, 3)
				So(le.Column, ShouldEqual, "Year")
			})
		})

		Convey("When a year is fractional", func() {
			_, err := normalize.Normalize(model.Sheet{
				Header: header,
				Rows:   [][]string{{"China (CHN)", "2018.5", "3", "1", "0", "4"}},
			})
			So(errors.Is(err, normalize.ErrInvalidYear), ShouldBeTrue)
		})

		Convey("When a year is numeric but out of range", func() {
			for _, v := range []string{"1e300", "9.3e18", "-3e10"} {
				_, err := normalize.Normalize(model.Sheet{
					Header: header,
					Rows:   [][]string{{"China (CHN)", v, "3", "1", "0", "4"}},
				})
				var le *normalize.LoadError
				So(errors.As(err, &le), ShouldBeTrue)
				So(le.Column, ShouldEqual, model.ColYear)
				So(errors.Is(err, normalize.ErrInvalidYear), ShouldBeTrue)
			}
		})

		Convey("When a medal count is numeric but out of range", func() {
			_, err := normalize.Normalize(model.Sheet{
				Header: header,
				Rows:   [][]string{{"China (CHN)", "2018", "1e300", "1", "0", "4"}},
			})
			So(errors.Is(err, normalize.ErrInvalidCount), ShouldBeTrue)
		})

		Convey("When a NOC cell carries surrounding whitespace", func() {
			table, err := normalize.Normalize(model.Sheet{
				Header: header,
				Rows:   [][]string{{"  Japan (JPN) ", "2018", "1", "2", "1", "4"}},
			})

			Convey("Then the cell is kept as stored and the country still derived", func() {
				So(err, ShouldBeNil)
				So(table.Records[0].NOC, ShouldEqual, "  Japan (JPN) ")
				So(table.Records[0].Country, ShouldEqual, "Japan")
				So(table.Sheet().Rows[0][0], ShouldEqual, "  Japan (JPN) ")
			})
		})

		Convey("When a medal count is blank or invalid", func() {
			table, err := normalize.Normalize(model.Sheet{
				Header: header,
				Rows:   [][]string{{"China (CHN)", "2018", "", "1", "0", "1"}},
			})
			So(err, ShouldBeNil)
			So(table.Records[0].Gold, ShouldEqual, 0)

			_, err = normalize.Normalize(model.Sheet{
				Header: header,
				Rows:   [][]string{{"China (CHN)", "2018", "-2", "1", "0", "1"}},
			})
			So(errors.Is(err, normalize.ErrInvalidCount), ShouldBeTrue)
		})

		Convey("When a required column is missing", func() {
			_, err := normalize.Normalize(model.Sheet{
				Header: []string{"NOC", "Year", "Gold"},
			})

			Convey("Then the load fails", func() {
				So(errors.Is(err, normalize.ErrMissingColumn), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "Silver")
			})
		})

		Convey("When headers vary in case and carry extra columns", func() {
			table, err := normalize.Normalize(model.Sheet{
				Header: []string{" noc ", "Rank", "YEAR", "gold", "silver", "bronze", "total", "Country", ""},
				Rows: [][]string{
					{"India (IND)", "5", "2022", "28", "38", "41", "107", "India", "junk"},
					{"Nepal (NEP)", "", "2022", "0", "0", "1", "1"},
				},
			})

			Convey("Then columns resolve and extras pass through", func() {
				So(err, ShouldBeNil)
				So(table.Extras, ShouldResemble, []string{"Rank"})
				So(table.Records[0].Extra, ShouldResemble, map[string]string{"Rank": "5"})
				So(table.Records[0].Total, ShouldEqual, 107)
				So(table.Records[1].Extra, ShouldBeNil)
			})
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given an edited record", t, func() {
		Convey("When it is well formed", func() {
			r, err := normalize.Validate(model.Record{NOC: " Iran (IRI) ", Year: 2022, Gold: 13, Total: 13, Country: "stale"})

			Convey("Then the country is re-derived from NOC", func() {
				So(err, ShouldBeNil)
				So(r.NOC, ShouldEqual, " Iran (IRI) ")
				So(r.Country, ShouldEqual, "Iran")
				So(r.HasCountry, ShouldBeTrue)
			})
		})

		Convey("When a count is negative", func() {
			_, err := normalize.Validate(model.Record{NOC: "Iran (IRI)", Year: 2022, Silver: -1})
			So(errors.Is(err, normalize.ErrInvalidCount), ShouldBeTrue)
		})
	})
}
