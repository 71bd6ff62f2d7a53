package extractnames

import (
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/apex/log"
	"github.com/ipatlas/ipatlas/internal/cli/root"
	"github.com/ipatlas/ipatlas/internal/fsx"
	"github.com/ipatlas/ipatlas/internal/gazetteer"
	"github.com/ipatlas/ipatlas/internal/output"
	"github.com/pkg/errors"
)

func init() {
	cmd := root.Command("extract-names", "Extract the localized names of some locales from alternateNames.txt")
	src := cmd.Flag("src", "Path of alternateNames.txt").Required().String()
	dst := cmd.Flag("dst", "Path of the file to write").Required().String()
	locales := cmd.Arg("locale", "Locales to keep (e.g. ru en)").Required().Strings()
	cmd.Action(func(_ *kingpin.ParseContext) error {
		return doextract(doextractconfig{
			Source:      *src,
			Destination: *dst,
			Locales:     *locales,
			Logger:      log.Log,
		})
	})
}

type doextractconfig struct {
	Source      string
	Destination string
	Locales     []string
	Logger      log.Interface
}

func doextract(config doextractconfig) error {
	if len(config.Locales) <= 0 {
		return errors.New("at least one locale is required")
	}
	src, err := fsx.OpenFile(config.Source)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(config.Destination)
	if err != nil {
		return err
	}
	count, err := gazetteer.ExtractLocalizedNames(dst, src, config.Locales...)
	if err != nil {
		dst.Close()
		os.Remove(config.Destination)
		return errors.Wrapf(err, "extracting names from %s", config.Source)
	}
	if err := dst.Close(); err != nil {
		return err
	}
	output.Table(config.Logger, "Names extracted", log.Fields{
		"destination": config.Destination,
		"locales":     config.Locales,
		"names":       count,
	})
	return nil
}
