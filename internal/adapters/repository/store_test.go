package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	repository "github.com/okian/medalboard/internal/adapters/repository"
	"github.com/okian/medalboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleSheet() model.Sheet {
	return model.Sheet{
		Header: []string{"NOC", "Year", "Gold", "Silver", "Bronze", "Total", "Note"},
		Rows: [][]string{
			{"China (CHN)", "2018", "3", "1", "0", "4", "007"},
			{"Japan (JPN)", "2018", "1", "2", "1", "4", ""},
		},
	}
}

// exerciseStore runs the shared Replace/Fetch contract against s.
func exerciseStore(ctx context.Context, s repository.Store) {
	Convey("When a table is written and read back", func() {
		So(s.Replace(ctx, sampleSheet()), ShouldBeNil)
		got, err := s.Fetch(ctx)

		Convey("Then the header and cells round-trip as text", func() {
			So(err, ShouldBeNil)
			So(got.Header, ShouldResemble, sampleSheet().Header)
			So(got.Rows, ShouldHaveLength, 2)
			So(got.Rows[0][:6], ShouldResemble, []string{"China (CHN)", "2018", "3", "1", "0", "4"})
			So(got.Rows[0][6], ShouldEqual, "007")
			So(got.Rows[1][0], ShouldEqual, "Japan (JPN)")
		})
	})

	Convey("When a smaller table replaces a larger one", func() {
		So(s.Replace(ctx, sampleSheet()), ShouldBeNil)
		smaller := model.Sheet{
			Header: []string{"NOC", "Year", "Gold", "Silver", "Bronze", "Total"},
			Rows:   [][]string{{"India (IND)", "2022", "28", "38", "41", "107"}},
		}
		So(s.Replace(ctx, smaller), ShouldBeNil)
		got, err := s.Fetch(ctx)

		Convey("Then nothing of the previous table survives", func() {
			So(err, ShouldBeNil)
			So(got.Header, ShouldResemble, smaller.Header)
			So(got.Rows, ShouldHaveLength, 1)
			So(got.Rows[0][0], ShouldEqual, "India (IND)")
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		s := repository.NewMemoryStore(model.Sheet{})
		So(s.Name(), ShouldEqual, "memory")

		exerciseStore(ctx, s)

		Convey("When the fetched sheet is modified", func() {
			So(s.Replace(ctx, sampleSheet()), ShouldBeNil)
			got, _ := s.Fetch(ctx)
			got.Rows[0][0] = "mutated"
			again, _ := s.Fetch(ctx)

			Convey("Then the stored copy is unaffected", func() {
				So(again.Rows[0][0], ShouldEqual, "China (CHN)")
			})
		})

		Convey("When a replace error is injected", func() {
			boom := errors.New("network down")
			s.SetReplaceError(boom)
			err := s.Replace(ctx, sampleSheet())

			Convey("Then Replace fails and the counter still moves", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				So(s.Replaces(), ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given a memory store that cannot be read", t, func() {
		boom := errors.New("auth failed")
		s := repository.NewMemoryStore(model.Sheet{}, repository.WithFetchError(boom))
		_, err := s.Fetch(context.Background())
		So(errors.Is(err, boom), ShouldBeTrue)
		So(s.Fetches(), ShouldEqual, 1)
	})
}

func TestXLSXStore(t *testing.T) {
	Convey("Given an xlsx store on a new workbook", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "medals.xlsx")
		s := repository.NewXLSXStore(path, "Medals")
		So(s.Name(), ShouldEqual, "xlsx")

		Convey("When the workbook does not exist yet", func() {
			_, err := s.Fetch(ctx)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		exerciseStore(ctx, s)

		Convey("When the workbook has another sheet", func() {
			So(s.Replace(ctx, sampleSheet()), ShouldBeNil)
			f, err := excelize.OpenFile(path)
			So(err, ShouldBeNil)
			_, err = f.NewSheet("Notes")
			So(err, ShouldBeNil)
			So(f.SetCellValue("Notes", "A1", "keep me"), ShouldBeNil)
			So(f.Save(), ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			So(s.Replace(ctx, sampleSheet()), ShouldBeNil)

			Convey("Then it is left alone", func() {
				f, err := excelize.OpenFile(path)
				So(err, ShouldBeNil)
				defer f.Close()
				v, err := f.GetCellValue("Notes", "A1")
				So(err, ShouldBeNil)
				So(v, ShouldEqual, "keep me")
				So(f.GetSheetList(), ShouldNotContain, "Sheet1")
			})
		})
	})

	Convey("Given an xlsx store without a sheet name", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "medals.xlsx")
		s := repository.NewXLSXStore(path, "")
		So(s.Replace(ctx, sampleSheet()), ShouldBeNil)
		got, err := s.Fetch(ctx)
		So(err, ShouldBeNil)
		So(got.Rows, ShouldHaveLength, 2)
	})
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a sqlite store", t, func() {
		ctx := context.Background()
		s, err := repository.OpenSQLiteStore(ctx, filepath.Join(t.TempDir(), "medals.db"), "")
		So(err, ShouldBeNil)
		defer s.Close()
		So(s.Name(), ShouldEqual, "sqlite")

		Convey("When the table does not exist yet", func() {
			_, err := s.Fetch(ctx)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		exerciseStore(ctx, s)

		Convey("When the header is empty", func() {
			err := s.Replace(ctx, model.Sheet{})
			So(errors.Is(err, repository.ErrInvalidLocator), ShouldBeTrue)
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given store locators", t, func() {
		ctx := context.Background()

		Convey("When the kind is memory", func() {
			s, err := repository.Open(ctx, repository.Locator{Kind: "memory"})
			So(err, ShouldBeNil)
			So(s.Name(), ShouldEqual, "memory")
		})

		Convey("When the kind is unknown", func() {
			_, err := repository.Open(ctx, repository.Locator{Kind: "ftp"})
			So(errors.Is(err, repository.ErrUnknownKind), ShouldBeTrue)
		})

		Convey("When a file backend has no path", func() {
			_, err := repository.Open(ctx, repository.Locator{Kind: "xlsx"})
			So(errors.Is(err, repository.ErrInvalidLocator), ShouldBeTrue)
			_, err = repository.Open(ctx, repository.Locator{Kind: "sqlite"})
			So(errors.Is(err, repository.ErrInvalidLocator), ShouldBeTrue)
		})

		Convey("When sheets has no credentials", func() {
			_, err := repository.Open(ctx, repository.Locator{Kind: "sheets", SheetURL: "abc123"})
			So(errors.Is(err, repository.ErrCredentials), ShouldBeTrue)
		})
	})
}

func TestSpreadsheetID(t *testing.T) {
	Convey("Given sheet locators", t, func() {
		id, err := repository.SpreadsheetID("https://docs.google.com/spreadsheets/d/1VwqIW7xtGt-Sea6y3_muzE/edit?usp=sharing")
		So(err, ShouldBeNil)
		So(id, ShouldEqual, "1VwqIW7xtGt-Sea6y3_muzE")

		id, err = repository.SpreadsheetID(" abc123 ")
		So(err, ShouldBeNil)
		So(id, ShouldEqual, "abc123")

		_, err = repository.SpreadsheetID("https://example.com/x")
		So(errors.Is(err, repository.ErrInvalidLocator), ShouldBeTrue)

		_, err = repository.SpreadsheetID("")
		So(errors.Is(err, repository.ErrInvalidLocator), ShouldBeTrue)
	})
}
