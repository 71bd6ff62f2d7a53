package importer

import (
	"context"
	"errors"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ipatlas/ipatlas/internal/config"
	"github.com/ipatlas/ipatlas/internal/database"
	"github.com/ipatlas/ipatlas/internal/gazetteer"
	"github.com/ipatlas/ipatlas/internal/ipcodec"
	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/ipatlas/ipatlas/internal/model/mocks"
	"github.com/rogpeppe/go-internal/lockedfile"
)

const (
	ukraineID = 690791
	moscowObl = 524894
	moscowID  = 524901
)

// tabRow returns a tab separated row of size fields with the
// given values at the given indexes.
func tabRow(size int, values map[int]string) string {
	fields := make([]string, size)
	for idx, value := range values {
		fields[idx] = value
	}
	return strings.Join(fields, "\t")
}

func writeFile(t *testing.T, dir, name string, lines ...string) string {
	path := filepath.Join(dir, name)
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// newConfig writes the dump files into a temporary directory and
// returns a config using them.
func newConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DatabasePath = filepath.Join(dir, "ipatlas.sqlite3")
	cfg.BatchSize = 2
	cfg.Parallelism = 2
	cfg.Gazetteer = gazetteer.Paths{
		Countries: writeFile(t, dir, "countryInfo.txt",
			tabRow(19, map[int]string{0: "RU", 4: "Russia", 16: "2017370"}),
			tabRow(19, map[int]string{0: "UA", 4: "Ukraine", 16: "690791"}),
		),
		Admin1: writeFile(t, dir, "admin1CodesASCII.txt", "RU.48\tMoscow\tMoscow\t524894"),
		Admin2: writeFile(t, dir, "admin2Codes.txt"),
		Places: writeFile(t, dir, "cities1000.txt",
			tabRow(19, map[int]string{0: "524901", 1: "Moscow", 4: "55.75222", 5: "37.61556", 8: "RU", 10: "48"}),
			tabRow(19, map[int]string{0: "703448", 1: "Kyiv", 4: "50.45466", 5: "30.5238", 8: "UA"}),
		),
	}
	cfg.Providers = []config.Provider{{
		Type: "ipgeobase",
		Files: map[string]string{
			"cidr": writeFile(t, dir, "cidr_optim.txt",
				"33554432\t33554687\t2.0.0.0 - 2.0.0.255\tRU\t2097",
				"33554688\t33554943\t2.0.1.0 - 2.0.1.255\tUA\t-",
				"33554944\t33555199\t2.0.2.0 - 2.0.2.255\tXX\t-",
			),
			"cities": writeFile(t, dir, "cities.txt", "2097\tМосква\tМосква\tЦентральный\t55.75\t37.61"),
		},
	}, {
		Type: "maxmind",
		Files: map[string]string{
			"blocks": writeFile(t, dir, "blocks.csv",
				"network,geoname_id,registered_country_geoname_id,represented_country_geoname_id,"+
					"is_anonymous_proxy,is_satellite_provider,postal_code,latitude,longitude,accuracy_radius",
				"2001:db8::/32,524894,2017370,,0,0,,,,",
			),
		},
	}}
	return cfg
}

// locate returns the area ids and providers matching ip.
func locate(t *testing.T, path, ip string) []model.IPRangeInfo {
	db, err := database.Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	infos, err := db.Locate(context.Background(), netip.MustParseAddr(ip))
	if err != nil {
		t.Fatal(err)
	}
	return infos
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t)
	var (
		mu     sync.Mutex
		loads  []string
		counts = make(map[string][]int)
	)
	opts := &Options{
		Config: cfg,
		Logger: model.DiscardLogger,
		NewProgress: func(description string, total int) model.ProgressFunc {
			mu.Lock()
			defer mu.Unlock()
			loads = append(loads, description)
			return func(count int) {
				mu.Lock()
				defer mu.Unlock()
				counts[description] = append(counts[description], count)
			}
		},
	}
	summary, err := Run(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("the summary is correct", func(t *testing.T) {
		if summary.RunID == "" || summary.Areas != 5 || summary.SearchRadius != cfg.SearchRadius {
			t.Fatalf("unexpected summary %+v", summary)
		}
		if len(summary.Providers) != 2 {
			t.Fatal("unexpected providers", summary.Providers)
		}
		ipgeobase := summary.Providers[0]
		ipgeobase.Distances.Median, ipgeobase.Distances.P95, ipgeobase.Distances.Max = 0, 0, 0
		expect := ProviderSummary{
			Tag: "ipgeobase", Read: 3, Accepted: 2, Dropped: 1,
			Distances: DistanceSummary{Count: 1},
		}
		if diff := cmp.Diff(expect, ipgeobase); diff != "" {
			t.Fatal(diff)
		}
		expect = ProviderSummary{Tag: "maxmindcsv", Read: 1, Accepted: 1}
		if diff := cmp.Diff(expect, summary.Providers[1]); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("progress is reported per bulk load", func(t *testing.T) {
		if diff := cmp.Diff([]string{"areas", "ipgeobase", "maxmindcsv"}, loads); diff != "" {
			t.Fatal(diff)
		}
		if diff := cmp.Diff([]int{2, 4, 5}, counts["areas"]); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("the ranges are stored", func(t *testing.T) {
		infos := locate(t, cfg.DatabasePath, "2.0.0.42")
		if len(infos) != 1 || infos[0].AreaID != moscowID || infos[0].Provider != "ipgeobase" {
			t.Fatal("unexpected infos", infos)
		}
		infos = locate(t, cfg.DatabasePath, "2.0.1.42")
		if len(infos) != 1 || infos[0].AreaID != ukraineID {
			t.Fatal("unexpected infos", infos)
		}
		infos = locate(t, cfg.DatabasePath, "2001:db8::1")
		if len(infos) != 1 || infos[0].AreaID != moscowObl || infos[0].Provider != "maxmindcsv" {
			t.Fatal("unexpected infos", infos)
		}
	})

	t.Run("the summary is saved", func(t *testing.T) {
		saved, err := ReadLastImport(cfg.DatabasePath)
		if err != nil {
			t.Fatal(err)
		}
		if saved.RunID != summary.RunID || len(saved.Providers) != 2 {
			t.Fatalf("unexpected saved summary %+v", saved)
		}
	})

	t.Run("a partial run replaces only its providers", func(t *testing.T) {
		partial := *cfg
		partial.Providers = cfg.Providers[:1]
		summary, err := Run(ctx, &Options{Config: &partial, KeepAreas: true, KeepRanges: true})
		if err != nil {
			t.Fatal(err)
		}
		if summary.Areas != 0 || len(summary.Providers) != 1 {
			t.Fatalf("unexpected summary %+v", summary)
		}
		if infos := locate(t, cfg.DatabasePath, "2.0.0.42"); len(infos) != 1 {
			t.Fatal("unexpected infos", infos)
		}
		if infos := locate(t, cfg.DatabasePath, "2001:db8::1"); len(infos) != 1 {
			t.Fatal("unexpected infos", infos)
		}
	})

	t.Run("a full run clears the other providers", func(t *testing.T) {
		partial := *cfg
		partial.Providers = cfg.Providers[:1]
		if _, err := Run(ctx, &Options{Config: &partial}); err != nil {
			t.Fatal(err)
		}
		if infos := locate(t, cfg.DatabasePath, "2001:db8::1"); len(infos) != 0 {
			t.Fatal("unexpected infos", infos)
		}
	})
}

func TestRunFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("without the gazetteer", func(t *testing.T) {
		cfg := newConfig(t)
		cfg.Gazetteer.Places = ""
		if _, err := Run(ctx, &Options{Config: cfg}); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("with a missing gazetteer file", func(t *testing.T) {
		cfg := newConfig(t)
		cfg.Gazetteer.Places = filepath.Join(t.TempDir(), "cities500.txt")
		if _, err := Run(ctx, &Options{Config: cfg}); !errors.Is(err, os.ErrNotExist) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("with a missing provider file", func(t *testing.T) {
		cfg := newConfig(t)
		cfg.Providers[1].Files["blocks"] = filepath.Join(t.TempDir(), "blocks.csv")
		if _, err := Run(ctx, &Options{Config: cfg}); !errors.Is(err, os.ErrNotExist) {
			t.Fatal("unexpected error", err)
		}
		if _, err := ReadLastImport(cfg.DatabasePath); err == nil {
			t.Fatal("expected no saved summary")
		}
	})

	t.Run("with a canceled context", func(t *testing.T) {
		cfg := newConfig(t)
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := Run(ctx, &Options{Config: cfg}); err == nil {
			t.Fatal("expected an error")
		}
	})
}

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}

func newFakeProvider(tag string, ranges []model.IPRangeLocation, err error) *mocks.IPRangeProvider {
	return &mocks.IPRangeProvider{
		MockName: func() string {
			return tag
		},
		MockParse: func(ctx context.Context, resolver model.AreaResolver) ([]model.IPRangeLocation, error) {
			return ranges, err
		},
		MockReport: func() model.ProviderReport {
			return model.ProviderReport{Read: len(ranges), Accepted: len(ranges)}
		},
	}
}

func TestRunWithFailingProviders(t *testing.T) {
	ctx := context.Background()
	good := []model.IPRangeLocation{{
		Range: model.IPRange{
			Start: netip.MustParseAddr("2.0.0.0"),
			End:   netip.MustParseAddr("2.0.0.255"),
		},
		AreaID: moscowID,
	}}
	inverted := []model.IPRangeLocation{{
		Range: model.IPRange{
			Start: netip.MustParseAddr("3.0.0.255"),
			End:   netip.MustParseAddr("3.0.0.0"),
		},
		AreaID: moscowID,
	}}
	newOptions := func(cfg *config.Config, providers ...*mocks.IPRangeProvider) *Options {
		cfg.Providers = nil
		byTag := make(map[string]*mocks.IPRangeProvider)
		for _, p := range providers {
			cfg.Providers = append(cfg.Providers, config.Provider{Type: "ipgeobase", Tag: p.Name()})
			byTag[p.Name()] = p
		}
		return &Options{
			Config: cfg,
			OpenProvider: func(pc *config.Provider, logger model.Logger) (model.IPRangeProvider, io.Closer, error) {
				return byTag[pc.Tag], nopCloser{}, nil
			},
		}
	}

	t.Run("a failing write keeps the ranges already committed", func(t *testing.T) {
		cfg := newConfig(t)
		opts := newOptions(cfg, newFakeProvider("good", good, nil), newFakeProvider("bad", inverted, nil))
		if _, err := Run(ctx, opts); !errors.Is(err, ipcodec.ErrInvalidRange) {
			t.Fatal("unexpected error", err)
		}
		infos := locate(t, cfg.DatabasePath, "2.0.0.42")
		if len(infos) != 1 || infos[0].Provider != "good" || infos[0].AreaID != moscowID {
			t.Fatal("unexpected infos", infos)
		}
		if infos := locate(t, cfg.DatabasePath, "3.0.0.42"); len(infos) != 0 {
			t.Fatal("unexpected infos", infos)
		}
		if _, err := ReadLastImport(cfg.DatabasePath); err == nil {
			t.Fatal("expected no saved summary")
		}
	})

	t.Run("a failing parse writes no ranges", func(t *testing.T) {
		cfg := newConfig(t)
		expected := errors.New("mocked error")
		opts := newOptions(cfg, newFakeProvider("good", good, nil), newFakeProvider("bad", nil, expected))
		if _, err := Run(ctx, opts); !errors.Is(err, expected) {
			t.Fatal("unexpected error", err)
		}
		if infos := locate(t, cfg.DatabasePath, "2.0.0.42"); len(infos) != 0 {
			t.Fatal("unexpected infos", infos)
		}
	})

	t.Run("fake providers are summarized under their tag", func(t *testing.T) {
		cfg := newConfig(t)
		summary, err := Run(ctx, newOptions(cfg, newFakeProvider("good", good, nil)))
		if err != nil {
			t.Fatal(err)
		}
		expect := []ProviderSummary{{Tag: "good", Read: 1, Accepted: 1}}
		if diff := cmp.Diff(expect, summary.Providers); diff != "" {
			t.Fatal(diff)
		}
	})
}

func TestRunWaitsForTheLock(t *testing.T) {
	cfg := newConfig(t)
	unlock, err := lockedfile.MutexAt(LockPath(cfg.DatabasePath)).Lock()
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() {
		_, err := Run(context.Background(), &Options{Config: cfg})
		done <- err
	}()
	select {
	case err := <-done:
		t.Fatal("run did not wait for the lock", err)
	case <-time.After(200 * time.Millisecond):
	}
	unlock()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestSummarizeDistances(t *testing.T) {
	if diff := cmp.Diff(DistanceSummary{}, SummarizeDistances(nil)); diff != "" {
		t.Fatal(diff)
	}
	var distances []float64
	for idx := 20; idx >= 1; idx-- {
		distances = append(distances, float64(idx))
	}
	expect := DistanceSummary{Count: 20, Median: 10.5, P95: 19, Max: 20}
	if diff := cmp.Diff(expect, SummarizeDistances(distances)); diff != "" {
		t.Fatal(diff)
	}
	if distances[0] != 20 {
		t.Fatal("the input has been modified")
	}
}
