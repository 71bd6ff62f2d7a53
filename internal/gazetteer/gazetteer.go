// Package gazetteer loads the administrative hierarchy from the GeoNames
// tab-separated dump files.
package gazetteer

import (
	"io"
	"strings"

	"github.com/ipatlas/ipatlas/internal/fsx"
	"github.com/ipatlas/ipatlas/internal/model"
)

// Sources contains the readers of the dump files. Names is optional.
type Sources struct {
	// Countries reads countryInfo.txt.
	Countries io.Reader

	// Admin1 reads admin1CodesASCII.txt.
	Admin1 io.Reader

	// Admin2 reads admin2Codes.txt.
	Admin2 io.Reader

	// Places reads one of the citiesNNNN.txt files.
	Places io.Reader

	// Names reads alternateNames.txt or an extract of it.
	Names io.Reader
}

// Paths contains the paths of the dump files. Names may be empty.
type Paths struct {
	Countries string `json:"countries"`
	Admin1    string `json:"admin1"`
	Admin2    string `json:"admin2"`
	Places    string `json:"places"`
	Names     string `json:"names"`
}

// OpenSources opens the files in paths. The caller owns the returned
// closer and must close it once Load returns.
func OpenSources(paths Paths) (Sources, io.Closer, error) {
	pathnames := []string{paths.Countries, paths.Admin1, paths.Admin2, paths.Places}
	if paths.Names != "" {
		pathnames = append(pathnames, paths.Names)
	}
	files, closer, err := fsx.OpenFiles(pathnames...)
	if err != nil {
		return Sources{}, nil, err
	}
	sources := Sources{
		Countries: files[0],
		Admin1:    files[1],
		Admin2:    files[2],
		Places:    files[3],
	}
	if len(files) > 4 {
		sources.Names = files[4]
	}
	return sources, closer, nil
}

// Graph is the loaded administrative hierarchy.
type Graph struct {
	// Countries contains the countries in file order.
	Countries []*model.Country

	// AdminAreas contains the level 1 areas followed by the level 2 areas.
	AdminAreas []*model.AdminArea

	// Places contains the populated places in file order.
	Places []*model.PopulatedPlace

	byID map[int64]model.Area
}

func newGraph() *Graph {
	return &Graph{byID: make(map[int64]model.Area)}
}

// Areas returns every area: countries, then admin areas, then places.
func (g *Graph) Areas() []model.Area {
	out := make([]model.Area, 0, g.Len())
	for _, c := range g.Countries {
		out = append(out, c)
	}
	for _, a := range g.AdminAreas {
		out = append(out, a)
	}
	for _, p := range g.Places {
		out = append(out, p)
	}
	return out
}

// Get returns the area with the given id, if any.
func (g *Graph) Get(id int64) (model.Area, bool) {
	area, found := g.byID[id]
	return area, found
}

// Len returns the number of areas.
func (g *Graph) Len() int {
	return len(g.byID)
}

// add registers area unless its id is already taken.
func (g *Graph) add(tr *tabReader, area model.Area) error {
	id := area.Info().ID
	if prev, found := g.byID[id]; found {
		return tr.errorf(ErrDuplicateArea, "%d already used by a %s", id, prev.Kind())
	}
	g.byID[id] = area
	return nil
}

// Loader loads a Graph. The zero value is ready to use.
type Loader struct {
	// Logger is the optional logger.
	Logger model.Logger
}

// Load is a convenience wrapper for (&Loader{}).Load.
func Load(src Sources) (*Graph, error) {
	return (&Loader{}).Load(src)
}

// Load reads all the sources and returns the Graph. Any malformed row
// stops the load with a *RowError.
func (l *Loader) Load(src Sources) (*Graph, error) {
	logger := model.ValidLoggerOrDefault(l.Logger)
	ld := &loader{
		graph:     newGraph(),
		countries: make(map[string]*model.Country),
		admins:    make(map[string]*model.AdminArea),
	}
	if err := ld.loadCountries(src.Countries); err != nil {
		return nil, err
	}
	logger.Debugf("gazetteer: loaded %d countries", len(ld.graph.Countries))
	if err := ld.loadAdminAreas("admin1", src.Admin1, 1); err != nil {
		return nil, err
	}
	if err := ld.loadAdminAreas("admin2", src.Admin2, 2); err != nil {
		return nil, err
	}
	logger.Debugf("gazetteer: loaded %d admin areas", len(ld.graph.AdminAreas))
	if err := ld.loadPlaces(src.Places); err != nil {
		return nil, err
	}
	logger.Debugf("gazetteer: loaded %d populated places", len(ld.graph.Places))
	if src.Names != nil {
		count, err := ld.loadNames(src.Names)
		if err != nil {
			return nil, err
		}
		logger.Debugf("gazetteer: applied %d localized names", count)
	}
	logger.Infof("gazetteer: loaded %d areas", ld.graph.Len())
	return ld.graph, nil
}

// loader holds the indexes used while loading.
type loader struct {
	graph     *Graph
	countries map[string]*model.Country
	admins    map[string]*model.AdminArea
}

// Column positions of countryInfo.txt.
const (
	countryCodeField    = 0
	countryNameField    = 4
	countryIDField      = 16
	countryMinNumFields = 17
)

func (ld *loader) loadCountries(r io.Reader) error {
	tr := newTabReader("countries", r, countryMinNumFields)
	for tr.next() {
		if tr.comment() {
			continue
		}
		if err := tr.check(); err != nil {
			return err
		}
		if strings.TrimSpace(tr.fields[countryIDField]) == "" {
			continue // defunct country
		}
		id, err := tr.id(countryIDField)
		if err != nil {
			return err
		}
		country := &model.Country{
			AreaInfo: model.AreaInfo{ID: id, Name: tr.fields[countryNameField]},
			Code:     strings.ToUpper(strings.TrimSpace(tr.fields[countryCodeField])),
		}
		if err := ld.graph.add(tr, country); err != nil {
			return err
		}
		ld.graph.Countries = append(ld.graph.Countries, country)
		ld.countries[country.Code] = country
	}
	return tr.err()
}

// Column positions of admin1CodesASCII.txt and admin2Codes.txt.
const (
	adminCodeField    = 0
	adminNameField    = 1
	adminIDField      = 3
	adminMinNumFields = 4
)

func (ld *loader) loadAdminAreas(file string, r io.Reader, level int) error {
	tr := newTabReader(file, r, adminMinNumFields)
	for tr.next() {
		if err := tr.check(); err != nil {
			return err
		}
		id, err := tr.id(adminIDField)
		if err != nil {
			return err
		}
		code := strings.TrimSpace(tr.fields[adminCodeField])
		cc, _, _ := strings.Cut(code, ".")
		country, found := ld.countries[cc]
		if !found {
			return tr.errorf(ErrDanglingReference, "unknown country %q", cc)
		}
		area := &model.AdminArea{
			AreaInfo:  model.AreaInfo{ID: id, Name: tr.fields[adminNameField]},
			CountryID: country.ID,
			Level:     level,
			Code:      code,
		}
		if err := ld.graph.add(tr, area); err != nil {
			return err
		}
		ld.graph.AdminAreas = append(ld.graph.AdminAreas, area)
		ld.admins[code] = area
	}
	return tr.err()
}

// Column positions of citiesNNNN.txt.
const (
	placeIDField        = 0
	placeNameField      = 1
	placeLatitudeField  = 4
	placeLongitudeField = 5
	placeCountryField   = 8
	placeAdmin1Field    = 10
	placeAdmin2Field    = 11
	placeMinNumFields   = 12
)

func (ld *loader) loadPlaces(r io.Reader) error {
	tr := newTabReader("places", r, placeMinNumFields)
	for tr.next() {
		if err := tr.check(); err != nil {
			return err
		}
		id, err := tr.id(placeIDField)
		if err != nil {
			return err
		}
		lat, err := tr.float(placeLatitudeField)
		if err != nil {
			return err
		}
		lon, err := tr.float(placeLongitudeField)
		if err != nil {
			return err
		}
		coords := model.Coordinates{Latitude: lat, Longitude: lon}
		if !coords.Valid() {
			return tr.errorf(ErrMalformedRow, "coordinates out of range: %f, %f", lat, lon)
		}
		cc := strings.TrimSpace(tr.fields[placeCountryField])
		country, found := ld.countries[cc]
		if !found {
			return tr.errorf(ErrDanglingReference, "unknown country %q", cc)
		}
		place := &model.PopulatedPlace{
			AreaInfo:    model.AreaInfo{ID: id, Name: tr.fields[placeNameField]},
			CountryID:   country.ID,
			Coordinates: coords,
		}
		admin1 := strings.TrimSpace(tr.fields[placeAdmin1Field])
		if admin1 != "" {
			key := cc + "." + admin1
			place.AdminAreaLevel1ID = ld.adminID(key)
			if admin2 := strings.TrimSpace(tr.fields[placeAdmin2Field]); admin2 != "" {
				place.AdminAreaLevel2ID = ld.adminID(key + "." + admin2)
			}
		}
		if err := ld.graph.add(tr, place); err != nil {
			return err
		}
		ld.graph.Places = append(ld.graph.Places, place)
	}
	return tr.err()
}

// adminID returns the id of the admin area with the given code, or nil.
func (ld *loader) adminID(code string) *int64 {
	area, found := ld.admins[code]
	if !found {
		return nil
	}
	id := area.ID
	return &id
}
