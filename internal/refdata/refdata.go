// Package refdata loads the flat reference tables the entity resolvers run
// against: the USGS places gazetteer, the city-to-default-state hint table,
// and the corporate name authority and synonym tables. Tables are loaded once
// at startup and are read-only thereafter, which is what makes concurrent
// resolution of multiple stories safe.
package refdata

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/oralatlas/tessera/internal/model"
)

// CityHint is one row of the curated city-to-default-state table, for city
// names unambiguous enough to need no state qualifier.
type CityHint struct {
	Name        string
	StateAbbrev string
	StateCode   int
	PlaceCode   int
}

// Synonym maps a corporate-name variant to its canonical name and authority ID
type Synonym struct {
	Canonical   string
	AuthorityID string
}

// Tables holds all reference data. Immutable once loaded.
type Tables struct {
	statesByKey   map[string]State          // lower name and lower abbrev
	placesByState map[int]map[string]int    // state code -> lower place name -> place code
	cityHints     map[string]CityHint       // lower city name
	orgAuthority  map[string]string         // lower org name -> authority ID
	orgSynonyms   map[string]Synonym        // lower synonym
	placeNames    map[int]map[int]string    // state code -> place code -> display name
}

// NewTables returns empty tables preloaded with the built-in state list.
// Tests build substitute tables through the Add methods.
func NewTables() *Tables {
	t := &Tables{
		statesByKey:   make(map[string]State),
		placesByState: make(map[int]map[string]int),
		cityHints:     make(map[string]CityHint),
		orgAuthority:  make(map[string]string),
		orgSynonyms:   make(map[string]Synonym),
		placeNames:    make(map[int]map[int]string),
	}
	for _, s := range states {
		t.statesByKey[strings.ToLower(s.Name)] = s
		t.statesByKey[strings.ToLower(s.Abbrev)] = s
	}
	return t
}

// Load reads all configured reference files. A missing or empty required
// file is fatal; malformed or duplicate rows are logged and skipped.
func Load(cfg model.RefDataConfig) (*Tables, error) {
	t := NewTables()
	if err := t.loadPlaces(cfg.PlacesPath); err != nil {
		return nil, err
	}
	if err := t.loadCityHints(cfg.CityHintsPath); err != nil {
		return nil, err
	}
	if err := t.loadOrgAuthority(cfg.OrgAuthorityPath); err != nil {
		return nil, err
	}
	if err := t.loadOrgSynonyms(cfg.OrgSynonymsPath); err != nil {
		return nil, err
	}
	return t, nil
}

// AddPlace registers a gazetteer place
func (t *Tables) AddPlace(placeCode int, name string, stateCode int) {
	key := strings.ToLower(name)
	byName, ok := t.placesByState[stateCode]
	if !ok {
		byName = make(map[string]int)
		t.placesByState[stateCode] = byName
	}
	if _, dup := byName[key]; dup {
		slog.Warn("duplicate place row skipped", "name", name, "state", stateCode)
		return
	}
	byName[key] = placeCode

	names, ok := t.placeNames[stateCode]
	if !ok {
		names = make(map[int]string)
		t.placeNames[stateCode] = names
	}
	names[placeCode] = name
}

// AddCityHint registers a default-state city hint
func (t *Tables) AddCityHint(h CityHint) {
	key := strings.ToLower(h.Name)
	if _, dup := t.cityHints[key]; dup {
		slog.Warn("duplicate city hint skipped", "name", h.Name)
		return
	}
	t.cityHints[key] = h
}

// AddOrg registers a corporate authority name
func (t *Tables) AddOrg(name, authorityID string) {
	key := strings.ToLower(name)
	if _, dup := t.orgAuthority[key]; dup {
		slog.Warn("duplicate authority row skipped", "name", name)
		return
	}
	t.orgAuthority[key] = authorityID
}

// AddOrgSynonym registers a corporate name synonym
func (t *Tables) AddOrgSynonym(synonym, canonical, authorityID string) {
	key := strings.ToLower(synonym)
	if _, dup := t.orgSynonyms[key]; dup {
		slog.Warn("duplicate synonym row skipped", "synonym", synonym)
		return
	}
	t.orgSynonyms[key] = Synonym{Canonical: canonical, AuthorityID: authorityID}
}

// StateByName looks up a state by full name or postal abbreviation
func (t *Tables) StateByName(name string) (State, bool) {
	s, ok := t.statesByKey[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// PlaceInState looks up a place name within one state's place table
func (t *Tables) PlaceInState(stateCode int, name string) (int, bool) {
	byName, ok := t.placesByState[stateCode]
	if !ok {
		return 0, false
	}
	code, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// PlaceName returns the display name for a resolved place
func (t *Tables) PlaceName(stateCode, placeCode int) string {
	return t.placeNames[stateCode][placeCode]
}

// CityHint looks up a city in the default-state hint table
func (t *Tables) CityHint(name string) (CityHint, bool) {
	h, ok := t.cityHints[strings.ToLower(strings.TrimSpace(name))]
	return h, ok
}

// OrgSynonym looks up a corporate-name synonym
func (t *Tables) OrgSynonym(name string) (Synonym, bool) {
	s, ok := t.orgSynonyms[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// OrgAuthority looks up a name in the corporate authority table
func (t *Tables) OrgAuthority(name string) (string, bool) {
	id, ok := t.orgAuthority[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

func (t *Tables) loadPlaces(path string) error {
	return readTSV(path, 3, func(fields []string) error {
		placeCode, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("place id %q: %w", fields[0], err)
		}
		stateCode, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("state id %q: %w", fields[2], err)
		}
		t.AddPlace(placeCode, fields[1], stateCode)
		return nil
	})
}

func (t *Tables) loadCityHints(path string) error {
	return readTSV(path, 4, func(fields []string) error {
		stateCode, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("state id %q: %w", fields[2], err)
		}
		placeCode, err := strconv.Atoi(fields[3])
		if err != nil {
			return fmt.Errorf("place id %q: %w", fields[3], err)
		}
		t.AddCityHint(CityHint{
			Name:        fields[0],
			StateAbbrev: fields[1],
			StateCode:   stateCode,
			PlaceCode:   placeCode,
		})
		return nil
	})
}

func (t *Tables) loadOrgAuthority(path string) error {
	return readTSV(path, 2, func(fields []string) error {
		t.AddOrg(fields[0], fields[1])
		return nil
	})
}

func (t *Tables) loadOrgSynonyms(path string) error {
	return readTSV(path, 3, func(fields []string) error {
		t.AddOrgSynonym(fields[0], fields[1], fields[2])
		return nil
	})
}

// readTSV reads a tab-separated file with one header line, passing each data
// row to add. Rows with too few columns or that add rejects are logged and
// skipped. A missing or empty file is fatal.
func readTSV(path string, minFields int, add func(fields []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrRefData, path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	rows := 0
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false // header
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < minFields {
			slog.Warn("malformed reference row skipped", "file", path, "line", line)
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if err := add(fields); err != nil {
			slog.Warn("bad reference row skipped", "file", path, "error", err)
			continue
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrRefData, path, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s: no data rows", model.ErrRefData, path)
	}
	return nil
}
