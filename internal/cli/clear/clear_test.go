package clear

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ipatlas/ipatlas/internal/clitest"
	"github.com/ipatlas/ipatlas/internal/config"
	"github.com/ipatlas/ipatlas/internal/database"
	"github.com/ipatlas/ipatlas/internal/model"
)

func TestInitFailed(t *testing.T) {
	expected := errors.New("mocked error")
	err := doclear(doclearconfig{
		Init: func() (*config.Config, error) {
			return nil, expected
		},
	})
	if !errors.Is(err, expected) {
		t.Fatalf("not the error we expected: %+v", err)
	}
}

func counts(t *testing.T, path string) *database.Counts {
	db, err := database.Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	counts, err := db.Counts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return counts
}

func TestClear(t *testing.T) {
	type testcase struct {
		name   string
		areas  bool
		ranges bool
		expect *database.Counts
	}

	cases := []testcase{{
		name:  "with --areas",
		areas: true,
		expect: &database.Counts{
			AreasByKind:      map[model.AreaKind]int{},
			RangesByProvider: map[string]int{"ipgeobase": 1, "maxmind": 1},
		},
	}, {
		name:   "with --ranges",
		ranges: true,
		expect: &database.Counts{
			AreasByKind: map[model.AreaKind]int{
				model.KindCountry:        1,
				model.KindAdminArea:      1,
				model.KindPopulatedPlace: 1,
			},
			RangesByProvider: map[string]int{},
		},
	}, {
		name: "without flags",
		expect: &database.Counts{
			AreasByKind:      map[model.AreaKind]int{},
			RangesByProvider: map[string]int{},
		},
	}}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := clitest.NewPopulatedConfig(t)
			handler := &clitest.FakeLoggerHandler{}
			err := doclear(doclearconfig{
				Areas:  tc.areas,
				Ranges: tc.ranges,
				Init: func() (*config.Config, error) {
					return cfg, nil
				},
				Logger: clitest.NewLogger(handler),
			})
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.expect, counts(t, cfg.DatabasePath)); diff != "" {
				t.Fatal(diff)
			}
			if len(handler.Tables()) != 1 {
				t.Fatal("expected a table")
			}
		})
	}
}
