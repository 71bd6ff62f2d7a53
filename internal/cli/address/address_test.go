package address

import (
	"errors"
	"testing"

	"github.com/ipatlas/ipatlas/internal/clitest"
	"github.com/ipatlas/ipatlas/internal/config"
	"github.com/ipatlas/ipatlas/internal/model"
)

func TestInitFailed(t *testing.T) {
	expected := errors.New("mocked error")
	err := doaddress(doaddressconfig{
		Init: func() (*config.Config, error) {
			return nil, expected
		},
	})
	if !errors.Is(err, expected) {
		t.Fatalf("not the error we expected: %+v", err)
	}
}

func TestAddress(t *testing.T) {
	cfg := clitest.NewPopulatedConfig(t)
	cfg.Culture = "ru"

	type testcase struct {
		name    string
		id      int64
		culture string
		expect  string
		err     error
	}

	cases := []testcase{{
		name:   "with the configured culture",
		id:     clitest.MoscowID,
		expect: "Москва, Московская область",
	}, {
		name:    "with an explicit culture",
		id:      clitest.MoscowID,
		culture: "en",
		expect:  "Moscow, Moscow Oblast",
	}, {
		name:    "with a country",
		id:      clitest.RussiaID,
		culture: "en",
		expect:  "Russia",
	}, {
		name: "with a missing area",
		id:   42,
		err:  model.ErrNotFound,
	}}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := &clitest.FakeLoggerHandler{}
			err := doaddress(doaddressconfig{
				ID:      tc.id,
				Culture: tc.culture,
				Init: func() (*config.Config, error) {
					return cfg, nil
				},
				Logger: clitest.NewLogger(handler),
			})
			if !errors.Is(err, tc.err) {
				t.Fatal("unexpected error", err)
			}
			if tc.err != nil {
				return
			}
			tables := handler.Tables()
			if len(tables) != 1 || tables[0].Fields["address"] != tc.expect {
				t.Fatalf("unexpected tables %+v", tables)
			}
		})
	}
}
