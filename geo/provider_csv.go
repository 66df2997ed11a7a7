package geo

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/eumel8/mlab-ns/types"
)

// File names in a legacy GeoLite City CSV directory.
const (
	CSVBlocksFile    = "GeoLiteCity-Blocks.csv"
	CSVLocationsFile = "GeoLiteCity-Location.csv"
	CSVIPv6File      = "GeoLiteCityv6.csv"
)

// CSVProvider loads the legacy GeoLite City CSV files:
//
//	GeoLiteCity-Blocks.csv    startIpNum,endIpNum,locId
//	GeoLiteCity-Location.csv  locId,country,region,city,postalCode,latitude,longitude,...
//	GeoLiteCityv6.csv         startIp,endIp,country,latitude,longitude
//
// Lines before the header row (the copyright notice) are skipped. The
// IPv6 file is optional.
type CSVProvider struct {
	dir string
}

func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

func (p *CSVProvider) Path() string {
	return p.dir
}

func (p *CSVProvider) LoadTables(ctx context.Context) (*Tables, error) {
	var v4 []IPv4Range
	err := readCSV(filepath.Join(p.dir, CSVBlocksFile), "startIpNum", func(rec []string) error {
		if len(rec) < 3 {
			return fmt.Errorf("expected 3 fields, got %d", len(rec))
		}
		start, err := parseUint32(rec[0])
		if err != nil {
			return err
		}
		end, err := parseUint32(rec[1])
		if err != nil {
			return err
		}
		loc, err := parseUint32(rec[2])
		if err != nil {
			return err
		}
		v4 = append(v4, IPv4Range{Start: start, End: end, LocationID: loc})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cities := map[uint32]City{}
	err = readCSV(filepath.Join(p.dir, CSVLocationsFile), "locId", func(rec []string) error {
		if len(rec) < 7 {
			return fmt.Errorf("expected at least 7 fields, got %d", len(rec))
		}
		id, err := parseUint32(rec[0])
		if err != nil {
			return err
		}
		loc, err := parsePoint(rec[5], rec[6])
		if err != nil {
			return err
		}
		cities[id] = City{
			City:     strings.TrimSpace(rec[3]),
			Country:  strings.TrimSpace(rec[1]),
			Location: loc,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var v6 []IPv6Range
	err = readCSV(filepath.Join(p.dir, CSVIPv6File), "startIp", func(rec []string) error {
		if len(rec) < 5 {
			return fmt.Errorf("expected 5 fields, got %d", len(rec))
		}
		start, err := netip.ParseAddr(strings.TrimSpace(rec[0]))
		if err != nil || !start.Is6() {
			return fmt.Errorf("invalid start address %q", rec[0])
		}
		end, err := netip.ParseAddr(strings.TrimSpace(rec[1]))
		if err != nil || !end.Is6() {
			return fmt.Errorf("invalid end address %q", rec[1])
		}
		loc, err := parsePoint(rec[3], rec[4])
		if err != nil {
			return err
		}
		v6 = append(v6, IPv6Range{
			Start:    upper64(start),
			End:      upper64(end),
			Country:  strings.TrimSpace(rec[2]),
			Location: loc,
		})
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return NewTables("csv:"+p.dir, v4, cities, v6)
}

// readCSV calls fn for every record after the row whose first field is
// header.
func readCSV(path, header string, fn func(rec []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	inData := false
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if !inData {
			if len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), header) {
				inData = true
			}
			continue
		}

		if err := fn(rec); err != nil {
			line, _ := r.FieldPos(0)
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}

	if !inData {
		return fmt.Errorf("%s: header %q not found", path, header)
	}
	return nil
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// parsePoint returns nil if either coordinate is empty.
func parsePoint(lat, lon string) (*types.Point, error) {
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if len(lat) == 0 || len(lon) == 0 {
		return nil, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, err
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, err
	}
	return &types.Point{Latitude: la, Longitude: lo}, nil
}
