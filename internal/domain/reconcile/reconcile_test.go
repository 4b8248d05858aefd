package reconcile_test

import (
	"context"
	"errors"
	"testing"

	repository "github.com/okian/medalboard/internal/adapters/repository"
	"github.com/okian/medalboard/internal/domain/filter"
	"github.com/okian/medalboard/internal/domain/model"
	"github.com/okian/medalboard/internal/domain/normalize"
	"github.com/okian/medalboard/internal/domain/reconcile"
	. "github.com/smartystreets/goconvey/convey"
)

func canonical() model.Table {
	sheet := model.Sheet{
		Header: []string{"NOC", "Year", "Gold", "Silver", "Bronze", "Total"},
		Rows: [][]string{
			{"China (CHN)", "2014", "151", "108", "83", "342"},
			{"China (CHN)", "2018", "132", "92", "65", "289"},
			{"Japan (JPN)", "2018", "75", "56", "74", "205"},
			{"Unlisted", "2018", "0", "0", "1", "1"},
		},
	}
	t, err := normalize.Normalize(sheet)
	if err != nil {
		panic(err)
	}
	return t
}

func stored(s *repository.MemoryStore) model.Table {
	sheet, err := s.Fetch(context.Background())
	So(err, ShouldBeNil)
	t, err := normalize.Normalize(sheet)
	So(err, ShouldBeNil)
	return t
}

func TestParseMode(t *testing.T) {
	Convey("Given save mode strings", t, func() {
		m, err := reconcile.ParseMode("Overwrite")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, reconcile.ModeOverwrite)

		m, err = reconcile.ParseMode("")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, reconcile.ModeMerge)

		_, err = reconcile.ParseMode("append")
		So(errors.Is(err, reconcile.ErrUnknownMode), ShouldBeTrue)
	})
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	Convey("Given a filter that shows only 2018", t, func() {
		base := canonical()
		sel := filter.NewSelection([]int{2018}, []string{"China", "Japan"})
		visible := filter.Apply(base, sel)
		So(visible.Len(), ShouldEqual, 2)

		edited := visible.Clone().Records
		edited[0].Gold = 133
		edited[0].Total = 290

		Convey("When saving in overwrite mode", func() {
			store := repository.NewMemoryStore(base.Sheet())
			written, err := reconcile.New(reconcile.ModeOverwrite).Save(ctx, store, base, sel, edited)

			Convey("Then the remote table holds only the edited rows", func() {
				So(err, ShouldBeNil)
				So(written.Len(), ShouldEqual, 2)
				remote := stored(store)
				So(remote.Len(), ShouldEqual, 2)
				So(remote.Records[0].Gold, ShouldEqual, 133)
			})

			Convey("And rows excluded by the filter are lost from the store", func() {
				remote := stored(store)
				for _, r := range remote.Records {
					So(r.Year, ShouldEqual, 2018)
					So(r.NOC, ShouldNotEqual, "Unlisted")
				}
			})
		})

		Convey("When saving in merge mode", func() {
			store := repository.NewMemoryStore(base.Sheet())
			written, err := reconcile.New(reconcile.ModeMerge).Save(ctx, store, base, sel, edited)

			Convey("Then excluded rows survive in their original positions", func() {
				So(err, ShouldBeNil)
				remote := stored(store)
				So(remote.Len(), ShouldEqual, 4)
				So(remote.Records[0].Year, ShouldEqual, 2014)
				So(remote.Records[1].Gold, ShouldEqual, 133)
				So(remote.Records[2].NOC, ShouldEqual, "Japan (JPN)")
				So(remote.Records[3].NOC, ShouldEqual, "Unlisted")
				So(written.Len(), ShouldEqual, 4)
			})

			Convey("And the canonical table is not modified", func() {
				So(base.Records[1].Gold, ShouldEqual, 132)
			})
		})

		Convey("When the editor removes a row and adds another", func() {
			changed := []model.Record{
				edited[0],
				{NOC: "India (IND)", Year: 2018, Gold: 16, Silver: 23, Bronze: 31, Total: 70},
				{NOC: "Iran (IRI)", Year: 2018, Gold: 20, Silver: 20, Bronze: 22, Total: 62},
			}
			store := repository.NewMemoryStore(base.Sheet())
			_, err := reconcile.New(reconcile.ModeMerge).Save(ctx, store, base, sel, changed)

			Convey("Then replacements fill filtered slots and surplus rows are appended", func() {
				So(err, ShouldBeNil)
				remote := stored(store)
				So(remote.Len(), ShouldEqual, 5)
				So(remote.Records[2].Country, ShouldEqual, "India")
				So(remote.Records[4].Country, ShouldEqual, "Iran")
			})
		})

		Convey("When an edited row is invalid", func() {
			bad := append([]model.Record(nil), edited...)
			bad[1].Bronze = -3
			store := repository.NewMemoryStore(base.Sheet())
			_, err := reconcile.New(reconcile.ModeMerge).Save(ctx, store, base, sel, bad)

			Convey("Then nothing is written", func() {
				So(errors.Is(err, reconcile.ErrInvalidEdit), ShouldBeTrue)
				var ee *reconcile.EditError
				So(errors.As(err, &ee), ShouldBeTrue)
				So(ee.Index, ShouldEqual, 1)
				So(store.Replaces(), ShouldEqual, 0)
			})
		})

		Convey("When the store rejects the write", func() {
			boom := errors.New("403 forbidden")
			store := repository.NewMemoryStore(base.Sheet(), repository.WithReplaceError(boom))
			_, err := reconcile.New(reconcile.ModeMerge).Save(ctx, store, base, sel, edited)

			Convey("Then a PersistError wraps the cause", func() {
				So(errors.Is(err, reconcile.ErrPersist), ShouldBeTrue)
				So(errors.Is(err, boom), ShouldBeTrue)
				var pe *reconcile.PersistError
				So(errors.As(err, &pe), ShouldBeTrue)
				So(pe.Store, ShouldEqual, "memory")
			})
		})
	})
}

func TestPlan(t *testing.T) {
	Convey("Given an empty edit under a narrowing filter", t, func() {
		base := canonical()
		sel := filter.NewSelection([]int{2014}, []string{"China"})

		Convey("Then merge drops only the filtered rows", func() {
			next := reconcile.New(reconcile.ModeMerge).Plan(base, sel, nil)
			So(next.Len(), ShouldEqual, 3)
		})

		Convey("Then overwrite empties the table", func() {
			next := reconcile.New(reconcile.ModeOverwrite).Plan(base, sel, nil)
			So(next.Empty(), ShouldBeTrue)
		})
	})
}
