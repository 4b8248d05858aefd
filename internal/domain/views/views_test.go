package views_test

import (
	"testing"

	"github.com/okian/medalboard/internal/domain/model"
	"github.com/okian/medalboard/internal/domain/views"
	. "github.com/smartystreets/goconvey/convey"
)

func r(country string, year, gold, silver, bronze, total int) model.Record {
	return model.Record{
		NOC: country + " (XXX)", Country: country, HasCountry: true,
		Year: year, Gold: gold, Silver: silver, Bronze: bronze, Total: total,
	}
}

func table(recs ...model.Record) model.Table { return model.Table{Records: recs} }

func TestBarFrames(t *testing.T) {
	Convey("Given a filtered table with a duplicate (country, year) pair", t, func() {
		b := views.BarFrames(table(
			r("China", 2022, 1, 0, 0, 1),
			r("China", 2018, 3, 1, 0, 4),
			r("China", 2018, 1, 0, 0, 1),
		))

		Convey("Then every row passes through and frames are sorted", func() {
			So(b.Points, ShouldHaveLength, 3)
			So(b.Points[1], ShouldResemble, views.BarPoint{Country: "China", Year: 2018, Total: 4})
			So(b.Frames, ShouldResemble, []int{2018, 2022})
		})
	})
}

func TestTrend(t *testing.T) {
	Convey("Given a filtered table", t, func() {
		in := table(r("China", 2018, 3, 1, 0, 4), r("Japan", 2018, 1, 2, 1, 4))
		out := views.Trend(in)

		Convey("Then the output has three rows per input row", func() {
			So(out, ShouldHaveLength, 3*in.Len())
		})

		Convey("And each medal row carries the matching count", func() {
			So(out[0], ShouldResemble, views.TrendPoint{Year: 2018, Country: "China", Medal: "Gold", Count: 3})
			So(out[1], ShouldResemble, views.TrendPoint{Year: 2018, Country: "China", Medal: "Silver", Count: 1})
			So(out[2], ShouldResemble, views.TrendPoint{Year: 2018, Country: "China", Medal: "Bronze", Count: 0})
			So(out[4].Count, ShouldEqual, 2)
		})
	})

	Convey("Given an empty table", t, func() {
		So(views.Trend(model.Table{}), ShouldBeEmpty)
	})
}

func TestTopN(t *testing.T) {
	Convey("Given the two-country example", t, func() {
		in := table(r("China", 2018, 3, 1, 0, 4), r("Japan", 2018, 1, 2, 1, 4))
		top := views.TopN(in, 3)

		Convey("Then both are returned and the tie keeps first appearance", func() {
			So(top, ShouldHaveLength, 2)
			So(top[0].Country, ShouldEqual, "China")
			So(top[0].Total, ShouldEqual, 4)
			So(top[1].Country, ShouldEqual, "Japan")
			So(top[1].Total, ShouldEqual, 4)
		})
	})

	Convey("Given more countries than n across several years", t, func() {
		in := table(
			r("India", 2014, 1, 1, 1, 3),
			r("China", 2014, 10, 5, 5, 20),
			r("Japan", 2014, 5, 5, 5, 15),
			r("Korea", 2014, 4, 4, 4, 12),
			r("India", 2018, 20, 0, 0, 20),
			r("Korea", 2018, 1, 1, 1, 99),
		)
		top := views.TopN(in, 3)

		Convey("Then sums span all years and at most n are kept", func() {
			So(top, ShouldHaveLength, 3)
			So(top[0], ShouldResemble, views.CountryMedals{Country: "India", Gold: 21, Silver: 1, Bronze: 1, Total: 23})
			So(top[1].Country, ShouldEqual, "China")
			So(top[2].Country, ShouldEqual, "Japan")
		})

		Convey("And totals never increase in rank order", func() {
			for i := 1; i < len(top); i++ {
				So(top[i].Total, ShouldBeLessThanOrEqualTo, top[i-1].Total)
			}
		})

		Convey("And the long form carries the same countries and magnitudes", func() {
			long := views.TopNLong(top)
			So(long, ShouldHaveLength, 9)
			So(long[0], ShouldResemble, views.MedalCount{Country: "India", Medal: "Gold", Count: 21})
			So(long[3], ShouldResemble, views.MedalCount{Country: "India", Medal: "Silver", Count: 1})
			So(long[8], ShouldResemble, views.MedalCount{Country: "Japan", Medal: "Bronze", Count: 5})
		})

		Convey("And the radar form has one series per country", func() {
			radar := views.TopNRadar(top)
			So(radar, ShouldHaveLength, 3)
			So(radar[1].Values, ShouldResemble, []int{10, 5, 5})
			So(radar[1].Axes, ShouldResemble, []string{"Gold", "Silver", "Bronze"})
		})
	})

	Convey("Given an empty table", t, func() {
		So(views.TopN(model.Table{}, 3), ShouldBeEmpty)
	})

	Convey("Given a non-positive n", t, func() {
		in := table(r("A", 1, 1, 0, 0, 1), r("B", 1, 2, 0, 0, 2), r("C", 1, 3, 0, 0, 3), r("D", 1, 4, 0, 0, 4))
		So(views.TopN(in, 0), ShouldHaveLength, views.DefaultTopN)
	})
}

func TestHeatmap(t *testing.T) {
	Convey("Given rows with gaps", t, func() {
		m := views.Heatmap(table(
			r("Japan", 2022, 0, 0, 0, 5),
			r("China", 2018, 0, 0, 0, 4),
			r("China", 2018, 0, 0, 0, 1),
		))

		Convey("Then labels are sorted and cells are summed", func() {
			So(m.Countries, ShouldResemble, []string{"China", "Japan"})
			So(m.Years, ShouldResemble, []int{2018, 2022})
			So(m.Cells[0][0], ShouldEqual, 5)
			So(m.Cells[1][1], ShouldEqual, 5)
		})

		Convey("And missing pairs are zero, never absent", func() {
			So(m.Cells, ShouldHaveLength, 2)
			for _, row := range m.Cells {
				So(row, ShouldHaveLength, 2)
			}
			So(m.Cells[0][1], ShouldEqual, 0)
			So(m.Cells[1][0], ShouldEqual, 0)
		})
	})

	Convey("Given an empty table", t, func() {
		m := views.Heatmap(model.Table{})
		So(m.Countries, ShouldBeEmpty)
		So(m.Cells, ShouldBeEmpty)
	})
}

func TestLatest(t *testing.T) {
	Convey("Given the two-country example", t, func() {
		tm := views.Latest(table(r("China", 2018, 3, 1, 0, 4), r("Japan", 2018, 1, 2, 1, 4)))

		Convey("Then both countries of 2018 are kept", func() {
			So(*tm.Year, ShouldEqual, 2018)
			So(tm.Entries, ShouldResemble, []views.CountryTotal{{Country: "China", Total: 4}, {Country: "Japan", Total: 4}})
		})
	})

	Convey("Given several years", t, func() {
		tm := views.Latest(table(r("China", 2022, 0, 0, 0, 9), r("Japan", 2018, 0, 0, 0, 4)))
		So(*tm.Year, ShouldEqual, 2022)
		So(tm.Entries, ShouldHaveLength, 1)
	})

	Convey("Given an empty table", t, func() {
		tm := views.Latest(model.Table{})
		So(tm.Year, ShouldBeNil)
		So(tm.Entries, ShouldBeEmpty)
	})
}

func TestBuild(t *testing.T) {
	Convey("Given an empty filtered table", t, func() {
		d := views.Build(model.Table{}, 0)

		Convey("Then every view is empty and nothing fails", func() {
			So(d.Rows, ShouldEqual, 0)
			So(d.Bar.Points, ShouldBeEmpty)
			So(d.Trend, ShouldBeEmpty)
			So(d.Top.Ranked, ShouldBeEmpty)
			So(d.Top.Long, ShouldBeEmpty)
			So(d.Heatmap.Cells, ShouldBeEmpty)
			So(d.Treemap.Year, ShouldBeNil)
			So(d.Titles.Treemap, ShouldEqual, "Medal Dominance")
		})
	})

	Convey("Given a populated table", t, func() {
		d := views.Build(table(r("China", 2018, 3, 1, 0, 4)), 3)
		So(d.Rows, ShouldEqual, 1)
		So(d.Titles.Top, ShouldContainSubstring, "Top 3")
		So(d.Titles.Treemap, ShouldEndWith, "2018")
	})
}
