package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"instituto-amostral/internal/model"
	"instituto-amostral/internal/sampling"
	"instituto-amostral/pkg/utils"
)

var (
	ErrDataUnavailable      = errors.New("dataset unavailable")
	ErrMunicipalityNotFound = errors.New("municipality not found")
	ErrInvalidData          = errors.New("invalid dataset")
)

// File names inside the data directory.
const (
	ZonesFile   = "tse.csv"
	IBGEFile    = "ibge.csv"
	ProfileFile = "tse_perfil.csv"
	MetaFile    = "meta_fontes.json"
)

// Header rows written and expected for each table.
var (
	ZonesHeader   = []string{"UF", "MUNICIPIO", "ZONA", "ELEITORES_TOTAL", "ELEITORES_FEMININO", "ELEITORES_MASCULINO", "SECOES"}
	IBGEHeader    = []string{"UF", "MUNICIPIO", "ID_IBGE", "POPULACAO_TOTAL", "IDH", "PIB_PER_CAPITA"}
	ProfileHeader = []string{"UF", "MUNICIPIO", "DIMENSAO", "CATEGORIA", "QT_ELEITORES"}
)

// ProfileSource names observed distributions in plan tables.
const ProfileSource = "TSE (perfil municipal por seção eleitoral)"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type key struct{ uf, name string }

func keyOf(uf, name string) key {
	return key{strings.ToUpper(strings.TrimSpace(uf)), utils.NormalizeName(name)}
}

// MunicipalitySummary is one entry of a UF listing.
type MunicipalitySummary struct {
	UF         string `json:"uf"`
	Name       string `json:"municipio"`
	Zones      int    `json:"zonas"`
	Electorate int    `json:"eleitores"`
}

// Dataset holds the prepared TSE and IBGE tables in memory.
type Dataset struct {
	Dir      string
	LoadedAt time.Time
	Meta     *model.SourceMeta

	names   map[key]string
	ibge    map[key]model.MunicipalityRecord
	zones   map[key][]sampling.ZoneElectorate
	profile map[key]map[sampling.Axis]map[string]int
}

// Load reads the tables from dir. tse.csv and ibge.csv are required;
// tse_perfil.csv and meta_fontes.json are optional.
func Load(dir string) (*Dataset, error) {
	ds := &Dataset{
		Dir:     dir,
		names:   make(map[key]string),
		ibge:    make(map[key]model.MunicipalityRecord),
		zones:   make(map[key][]sampling.ZoneElectorate),
		profile: make(map[key]map[sampling.Axis]map[string]int),
	}

	for _, name := range []string{ZonesFile, IBGEFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("%w: %s not found in %s", ErrDataUnavailable, name, dir)
		}
	}

	if err := readTable(filepath.Join(dir, IBGEFile), IBGEHeader[:4], ds.addIBGE); err != nil {
		return nil, err
	}
	if err := readTable(filepath.Join(dir, ZonesFile), ZonesHeader, ds.addZone); err != nil {
		return nil, err
	}
	profilePath := filepath.Join(dir, ProfileFile)
	if _, err := os.Stat(profilePath); err == nil {
		if err := readTable(profilePath, ProfileHeader, ds.addProfile); err != nil {
			return nil, err
		}
	}
	if b, err := os.ReadFile(filepath.Join(dir, MetaFile)); err == nil {
		var meta model.SourceMeta
		if err := json.Unmarshal(b, &meta); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidData, MetaFile, err)
		}
		ds.Meta = &meta
	}

	if len(ds.zones) == 0 {
		return nil, fmt.Errorf("%w: %s has no zones", ErrDataUnavailable, ZonesFile)
	}
	for k := range ds.zones {
		sort.Slice(ds.zones[k], func(i, j int) bool { return ds.zones[k][i].Zone < ds.zones[k][j].Zone })
	}
	ds.LoadedAt = time.Now()
	return ds, nil
}

// row gives access to a CSV record by column name.
type row struct {
	cols   map[string]int
	record []string
}

func (r row) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r row) int(col string) (int, error) {
	n, err := utils.ParseInt(r.get(col))
	if err != nil {
		return 0, fmt.Errorf("column %s: %v", col, err)
	}
	return n, nil
}

func readTable(path string, required []string, add func(row) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("%w: %s: reading header: %v", ErrInvalidData, filepath.Base(path), err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return fmt.Errorf("%w: %s: missing column %s", ErrInvalidData, filepath.Base(path), c)
		}
	}

	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("%w: %s row %d: %v", ErrInvalidData, filepath.Base(path), line, err)
		}
		if err := add(row{cols: cols, record: rec}); err != nil {
			return fmt.Errorf("%w: %s row %d: %v", ErrInvalidData, filepath.Base(path), line, err)
		}
	}
}

func (ds *Dataset) addIBGE(r row) error {
	rec := model.MunicipalityRecord{UF: strings.ToUpper(r.get("UF")), Name: r.get("MUNICIPIO")}
	if rec.UF == "" || rec.Name == "" {
		return errors.New("empty UF or MUNICIPIO")
	}
	var err error
	if rec.IBGEID, err = r.int("ID_IBGE"); err != nil {
		return err
	}
	if rec.Population, err = r.int("POPULACAO_TOTAL"); err != nil {
		return err
	}
	if rec.HDI, err = utils.ParseOptionalFloat(r.get("IDH")); err != nil {
		return fmt.Errorf("column IDH: %v", err)
	}
	if rec.GDPPerCapita, err = utils.ParseOptionalFloat(r.get("PIB_PER_CAPITA")); err != nil {
		return fmt.Errorf("column PIB_PER_CAPITA: %v", err)
	}
	k := keyOf(rec.UF, rec.Name)
	ds.ibge[k] = rec
	ds.names[k] = rec.Name
	return nil
}

func (ds *Dataset) addZone(r row) error {
	uf, name := strings.ToUpper(r.get("UF")), r.get("MUNICIPIO")
	if uf == "" || name == "" {
		return errors.New("empty UF or MUNICIPIO")
	}
	var z sampling.ZoneElectorate
	var err error
	for col, dst := range map[string]*int{
		"ZONA": &z.Zone, "ELEITORES_TOTAL": &z.Total, "ELEITORES_FEMININO": &z.Female,
		"ELEITORES_MASCULINO": &z.Male, "SECOES": &z.Sections,
	} {
		if *dst, err = r.int(col); err != nil {
			return err
		}
		if *dst < 0 {
			return fmt.Errorf("column %s: negative value %d", col, *dst)
		}
	}
	k := keyOf(uf, name)
	ds.zones[k] = append(ds.zones[k], z)
	if _, ok := ds.names[k]; !ok {
		ds.names[k] = name
	}
	return nil
}

func (ds *Dataset) addProfile(r row) error {
	axis, ok := dimensions[strings.ToUpper(r.get("DIMENSAO"))]
	if !ok {
		// unknown dimensions are ignored so newer exports stay readable
		return nil
	}
	voters, err := r.int("QT_ELEITORES")
	if err != nil {
		return err
	}
	category, ok := MapCategory(axis, r.get("CATEGORIA"))
	if !ok {
		return nil
	}
	k := keyOf(r.get("UF"), r.get("MUNICIPIO"))
	byAxis, ok := ds.profile[k]
	if !ok {
		byAxis = make(map[sampling.Axis]map[string]int)
		ds.profile[k] = byAxis
	}
	if byAxis[axis] == nil {
		byAxis[axis] = make(map[string]int)
	}
	byAxis[axis][category] += voters
	return nil
}

// UFs returns the states present in the zone table, sorted.
func (ds *Dataset) UFs() []string {
	seen := make(map[string]bool)
	for k := range ds.zones {
		seen[k.uf] = true
	}
	out := make([]string, 0, len(seen))
	for uf := range seen {
		out = append(out, uf)
	}
	sort.Strings(out)
	return out
}

// Municipalities lists the municipalities of a UF with zone data, sorted by
// name.
func (ds *Dataset) Municipalities(uf string) []MunicipalitySummary {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	var out []MunicipalitySummary
	for k, zones := range ds.zones {
		if k.uf != uf {
			continue
		}
		s := MunicipalitySummary{UF: uf, Name: ds.names[k], Zones: len(zones)}
		for _, z := range zones {
			s.Electorate += z.Total
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return utils.NormalizeName(out[i].Name) < utils.NormalizeName(out[j].Name) })
	return out
}

// Municipality returns the identification and zone table of a municipality.
// Name matching ignores accents and case.
func (ds *Dataset) Municipality(uf, name string) (sampling.Municipality, []sampling.ZoneElectorate, error) {
	k := keyOf(uf, name)
	zones, ok := ds.zones[k]
	if !ok {
		return sampling.Municipality{}, nil, fmt.Errorf("%w: %s/%s", ErrMunicipalityNotFound, name, uf)
	}
	m := sampling.Municipality{UF: k.uf, Name: ds.names[k]}
	if rec, ok := ds.ibge[k]; ok {
		m.IBGEID = rec.IBGEID
		m.Population = rec.Population
		m.HDI = rec.HDI
		m.GDPPerCapita = rec.GDPPerCapita
	}
	if m.Population == 0 {
		for _, z := range zones {
			m.Population += z.Total
		}
	}
	out := make([]sampling.ZoneElectorate, len(zones))
	copy(out, zones)
	return m, out, nil
}

// Distribution implements sampling.ProfileLookup over tse_perfil.csv.
func (ds *Dataset) Distribution(uf, municipality string, axis sampling.Axis) (sampling.Distribution, string, bool) {
	counts := ds.profile[keyOf(uf, municipality)][axis]
	if len(counts) == 0 {
		return nil, "", false
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return nil, "", false
	}
	order := CategoryOrder(axis)
	d := make(sampling.Distribution, 0, len(order))
	for _, c := range order {
		d = append(d, sampling.CategoryShare{Category: c, Share: float64(counts[c]) / float64(total)})
	}
	return d, ProfileSource, true
}

// Profiles pairs the observed profile with a calibrated fallback.
func (ds *Dataset) Profiles(calibrated sampling.ProfileLookup) sampling.ProfileSources {
	return sampling.ProfileSources{Real: ds, Calibrated: calibrated}
}
