package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/oceans-api/internal/config"
)

const fillValue = 9.96921e+36

// coord is one coordinate variable, written with a dimension of the same name.
type coord struct {
	name   string
	units  string
	values []float64
}

// field is one data variable laid out row-major over dims.
type field struct {
	name   string
	typ    netcdf.Type
	units  string
	dims   []string
	values []float64
	// scale is written as scale_factor; stored values are values/scale.
	scale float64
	fill  bool
}

// Synthetic ocean: a warm, salty equatorial band cooling with depth, a
// seasonal cycle in phase opposition between hemispheres, and a land block.
func land(lat, lon float64) bool {
	return lat > -30 && lat < 60 && lon > 10 && lon < 40
}

func temperature(doy, z, lat float64) float64 {
	surface := 2 + 26*math.Cos(lat*math.Pi/180)
	season := 2 * math.Cos(2*math.Pi*(doy-228)/365.25) * math.Sin(lat*math.Pi/180) * math.Exp(-z/150)
	return 2 + (surface-2)*math.Exp(-z/700) + season
}

func salinity(doy, z, lat float64) float64 {
	season := 0.1 * math.Cos(2*math.Pi*(doy-228)/365.25) * math.Exp(-z/100)
	return 34.7 + 0.8*math.Cos(lat*math.Pi/90)*math.Exp(-z/500) + season
}

func height(lat, lon float64) float64 {
	if land(lat, lon) {
		return 500 + 1500*math.Sin((lat+30)*math.Pi/90)*math.Sin((lon-10)*math.Pi/30)
	}
	return -4000 - 1000*math.Cos(lat*math.Pi/45)*math.Cos(lon*math.Pi/60)
}

var woaDepths = []float64{0, 10, 20, 30, 50, 75, 100, 125, 150, 200, 250, 300, 400, 500, 600,
	700, 800, 900, 1000, 1100, 1200, 1300, 1400, 1500, 1750, 2000, 2500, 3000, 3500, 4000, 4500, 5000, 5500}

func main() {
	outDir := flag.String("out", "./data", "Output directory for NetCDF files")
	woaRes := flag.Float64("woa-resolution", 5, "WOA grid resolution in degrees")
	carsRes := flag.Float64("cars-resolution", 2, "CARS grid resolution in degrees")
	etopoRes := flag.Float64("etopo-resolution", 1, "ETOPO grid resolution in degrees")
	carsLevels := flag.Int("cars-levels", 20, "Number of CARS depth levels")
	flag.Parse()

	if *woaRes <= 0 || *carsRes <= 0 || *etopoRes <= 0 || *carsLevels < 1 || *carsLevels > len(woaDepths) {
		log.Fatalf("Invalid grid parameters")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	catalog := config.Default(*outDir)
	for _, d := range catalog.Datasets {
		var err error
		paths := catalog.Paths(d)
		switch d.Family {
		case "WOA":
			err = generateWOA(paths, d.Kind, *woaRes)
		case "CARS":
			err = generateCARS(paths[0], d.Kind, *carsRes, *carsLevels)
		case "ETOPO":
			err = generateETOPO(paths[0], *etopoRes)
		}
		if err != nil {
			log.Printf("Warning: Failed to generate %s/%s: %v", d.Family, d.Kind, err)
			continue
		}
		for _, p := range paths {
			log.Printf("✓ Generated %s", filepath.Base(p))
		}
	}

	log.Printf("=== Generation Complete ===")
	log.Printf("Files created in: %s", *outDir)
	log.Printf("Serve them with: OCEANSDB_DIR=%s oceans-api", *outDir)
}

// axis returns cell centres from lo to hi (exclusive) at res.
func axis(lo, hi, res float64) []float64 {
	n := int(math.Round((hi - lo) / res))
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (float64(i)+0.5)*res
	}
	return out
}

func generateWOA(paths []string, kind string, res float64) error {
	lat, lon := axis(-90, 90, res), axis(-180, 180, res)
	prefix, units, value := "t", "degrees_celsius", temperature
	if kind == "salinity" {
		prefix, units, value = "s", "1", salinity
	}
	for season, path := range paths {
		month := 1.5 + 3*float64(season)
		doy := month * 365 / 12
		n := len(woaDepths) * len(lat) * len(lon)
		mn := make([]float64, 0, n)
		sd := make([]float64, 0, n)
		dd := make([]float64, 0, n)
		for _, z := range woaDepths {
			for _, la := range lat {
				for _, lo := range lon {
					if land(la, lo) || z > -height(la, lo) {
						mn, sd, dd = append(mn, fillValue), append(sd, fillValue), append(dd, fillValue)
						continue
					}
					mn = append(mn, value(doy, z, la))
					sd = append(sd, 0.05+0.5*math.Exp(-z/300))
					dd = append(dd, math.Round(50*math.Exp(-z/1000))+1)
				}
			}
		}
		dims := []string{"time", "depth", "lat", "lon"}
		err := writeNetCDF(path,
			[]coord{{"time", "months", []float64{month}}, {"depth", "meters", woaDepths}, {"lat", "degrees_north", lat}, {"lon", "degrees_east", lon}},
			[]field{
				{name: prefix + "_mn", typ: netcdf.FLOAT, units: units, dims: dims, values: mn, fill: true},
				{name: prefix + "_sd", typ: netcdf.FLOAT, units: units, dims: dims, values: sd, fill: true},
				{name: prefix + "_dd", typ: netcdf.INT, units: "1", dims: dims, values: dd, fill: true},
			})
		if err != nil {
			return err
		}
	}
	return nil
}

// generateCARS writes the harmonic coefficients of the synthetic fields,
// fitted per cell from twelve monthly samples.
func generateCARS(path, kind string, res float64, levels int) error {
	lat, lon := axis(-90, 90, res), axis(0, 360, res)
	depth := woaDepths[:levels]
	// Harmonics are stored on shallower level subsets than the mean.
	nAnn := min(levels, 64)
	nSemi := max(1, nAnn*3/4)
	value := temperature
	if kind == "salinity" {
		value = salinity
	}

	plane := len(lat) * len(lon)
	mean := make([]float64, levels*plane)
	anCos := make([]float64, nAnn*plane)
	anSin := make([]float64, nAnn*plane)
	saCos := make([]float64, nSemi*plane)
	saSin := make([]float64, nSemi*plane)
	stdDev := make([]float64, levels*plane)
	nq := make([]float64, levels*plane)
	for k, z := range depth {
		for i, la := range lat {
			for j, lo := range lon {
				idx := i*len(lon) + j
				if land(la, lo) || z > -height(la, lo) {
					for _, dst := range [][]float64{mean, stdDev, nq} {
						dst[k*plane+idx] = fillValue
					}
					if k < nAnn {
						anCos[k*plane+idx], anSin[k*plane+idx] = fillValue, fillValue
					}
					if k < nSemi {
						saCos[k*plane+idx], saSin[k*plane+idx] = fillValue, fillValue
					}
					continue
				}
				var m, c1, s1, c2, s2 float64
				for month := 0; month < 12; month++ {
					doy := (float64(month) + 0.5) * 366 / 12
					t := 2 * math.Pi * doy / 366
					v := value(doy, z, la)
					m += v / 12
					c1 += v * math.Cos(t) / 6
					s1 += v * math.Sin(t) / 6
					c2 += v * math.Cos(2*t) / 6
					s2 += v * math.Sin(2*t) / 6
				}
				mean[k*plane+idx] = m
				stdDev[k*plane+idx] = 0.05 + 0.3*math.Exp(-z/300)
				nq[k*plane+idx] = math.Round(200 * math.Exp(-z/800))
				if k < nAnn {
					anCos[k*plane+idx], anSin[k*plane+idx] = c1, s1
				}
				if k < nSemi {
					saCos[k*plane+idx], saSin[k*plane+idx] = c2, s2
				}
			}
		}
	}

	spatial := []string{"depth", "lat", "lon"}
	ann := []string{"depth_ann", "lat", "lon"}
	semi := []string{"depth_semiann", "lat", "lon"}
	return writeNetCDF(path,
		[]coord{
			{"depth", "meters", depth}, {"depth_ann", "meters", depth[:nAnn]}, {"depth_semiann", "meters", depth[:nSemi]},
			{"lat", "degrees_north", lat}, {"lon", "degrees_east", lon},
		},
		[]field{
			{name: "mean", typ: netcdf.FLOAT, dims: spatial, values: mean, fill: true},
			{name: "an_cos", typ: netcdf.FLOAT, dims: ann, values: anCos, fill: true},
			{name: "an_sin", typ: netcdf.FLOAT, dims: ann, values: anSin, fill: true},
			{name: "sa_cos", typ: netcdf.FLOAT, dims: semi, values: saCos, fill: true},
			{name: "sa_sin", typ: netcdf.FLOAT, dims: semi, values: saSin, fill: true},
			{name: "std_dev", typ: netcdf.FLOAT, dims: spatial, values: stdDev, fill: true},
			{name: "nq", typ: netcdf.SHORT, dims: spatial, values: nq, fill: true},
		})
}

func generateETOPO(path string, res float64) error {
	lat, lon := axis(-90, 90, res), axis(-180, 180, res)
	z := make([]float64, 0, len(lat)*len(lon))
	for _, la := range lat {
		for _, lo := range lon {
			z = append(z, math.Round(height(la, lo)))
		}
	}
	return writeNetCDF(path,
		[]coord{{"lat", "degrees_north", lat}, {"lon", "degrees_east", lon}},
		[]field{{name: "z", typ: netcdf.SHORT, units: "meters", dims: []string{"lat", "lon"}, values: z, scale: 1}})
}

// writeNetCDF writes a classic NetCDF file with the given coordinates and
// fields.
func writeNetCDF(path string, coords []coord, fields []field) error {
	// Create NetCDF file
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer ds.Close()

	// Create dimensions and coordinate variables
	dims := make(map[string]netcdf.Dim, len(coords))
	coordVars := make([]netcdf.Var, len(coords))
	for i, c := range coords {
		d, err := ds.AddDim(c.name, uint64(len(c.values)))
		if err != nil {
			return err
		}
		dims[c.name] = d
		v, err := ds.AddVar(c.name, netcdf.DOUBLE, []netcdf.Dim{d})
		if err != nil {
			return err
		}
		if err := v.Attr("units").WriteBytes([]byte(c.units)); err != nil {
			return err
		}
		coordVars[i] = v
	}

	// Create data variables
	dataVars := make([]netcdf.Var, len(fields))
	for i, f := range fields {
		fd := make([]netcdf.Dim, len(f.dims))
		for j, name := range f.dims {
			fd[j] = dims[name]
		}
		v, err := ds.AddVar(f.name, f.typ, fd)
		if err != nil {
			return err
		}
		if f.units != "" {
			if err := v.Attr("units").WriteBytes([]byte(f.units)); err != nil {
				return err
			}
		}
		if f.fill {
			if err := writeFill(v, f.typ); err != nil {
				return err
			}
		}
		if f.scale != 0 && f.scale != 1 {
			if err := v.Attr("scale_factor").WriteFloat64s([]float64{f.scale}); err != nil {
				return err
			}
		}
		dataVars[i] = v
	}
	if err := ds.EndDef(); err != nil {
		return err
	}

	for i, c := range coords {
		if err := coordVars[i].WriteFloat64s(c.values); err != nil {
			return fmt.Errorf("failed to write %s: %w", c.name, err)
		}
	}
	for i, f := range fields {
		if err := writeValues(dataVars[i], f); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}
	return nil
}

// integerFill is the fill marker of integer variables.
func integerFill(typ netcdf.Type) float64 {
	if typ == netcdf.SHORT {
		return math.MinInt16 + 1
	}
	return math.MinInt32 + 1
}

func writeFill(v netcdf.Var, typ netcdf.Type) error {
	switch typ {
	case netcdf.FLOAT:
		return v.Attr("_FillValue").WriteFloat32s([]float32{fillValue})
	case netcdf.SHORT:
		return v.Attr("_FillValue").WriteInt16s([]int16{int16(integerFill(typ))})
	case netcdf.INT:
		return v.Attr("_FillValue").WriteInt32s([]int32{int32(integerFill(typ))})
	}
	return v.Attr("_FillValue").WriteFloat64s([]float64{fillValue})
}

func writeValues(v netcdf.Var, f field) error {
	scale := f.scale
	if scale == 0 {
		scale = 1
	}
	switch f.typ {
	case netcdf.FLOAT:
		buf := make([]float32, len(f.values))
		for i, x := range f.values {
			buf[i] = float32(x)
		}
		return v.WriteFloat32s(buf)
	case netcdf.SHORT:
		buf := make([]int16, len(f.values))
		for i, x := range f.values {
			if x == fillValue {
				buf[i] = int16(integerFill(f.typ))
				continue
			}
			buf[i] = int16(math.Round(x / scale))
		}
		return v.WriteInt16s(buf)
	case netcdf.INT:
		buf := make([]int32, len(f.values))
		for i, x := range f.values {
			if x == fillValue {
				buf[i] = int32(integerFill(f.typ))
				continue
			}
			buf[i] = int32(math.Round(x / scale))
		}
		return v.WriteInt32s(buf)
	}
	return v.WriteFloat64s(f.values)
}
