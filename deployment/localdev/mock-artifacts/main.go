// Command mock-artifacts serves a synthetic artifact set over HTTP so the engine can be run
// against remote references locally. It also answers the Drive download endpoint, so
// gdrive://<name> references work when remote.driveURL points here.
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/parquet-go/parquet-go"

	"github.com/miradorstack/cluster-atlas/internal/catalog"
)

type caseRow struct {
	EntResid int32  `parquet:"ent_resid"`
	Cluster  int64  `parquet:"cluster"`
	Sexo     string `parquet:"sexo"`
}

type artifact struct {
	contentType string
	body        []byte
}

var profiles = []struct {
	name        string
	description string
}{
	{"Adultos mayores", "Casos de 60 años o más con comorbilidades"},
	{"Adultos jóvenes", "Casos de 20 a 39 años sin comorbilidades"},
	{"Menores", "Casos menores de 18 años"},
	{"Adultos con comorbilidad", "Casos de 40 a 59 años con diabetes o hipertensión"},
}

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	cases := flag.Int("cases", 5000, "number of synthetic cases")
	seed := flag.Int64("seed", 13, "random seed")
	flag.Parse()

	logger := log.New(log.Writer(), "artifacts-mock ", log.LstdFlags|log.Lmicroseconds)

	artifacts, err := buildArtifacts(*cases, *seed)
	if err != nil {
		logger.Fatalf("build artifacts: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/artifacts/", func(w http.ResponseWriter, r *http.Request) {
		serveArtifact(w, artifacts, r.URL.Path[len("/artifacts/"):])
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		serveArtifact(w, artifacts, r.URL.Query().Get("id"))
	})
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, _ *http.Request) {
		names := make([]string, 0, len(artifacts))
		for name := range artifacts {
			names = append(names, name)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{"artifacts": names}); err != nil {
			logger.Printf("encode error: %v", err)
		}
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           logRequests(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Printf("listening on %s with %d cases", *addr, *cases)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func serveArtifact(w http.ResponseWriter, artifacts map[string]artifact, name string) {
	a, ok := artifacts[name]
	if !ok {
		http.NotFound(w, nil)
		return
	}
	w.Header().Set("Content-Type", a.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.body)))
	_, _ = w.Write(a.body)
}

func buildArtifacts(n int, seed int64) (map[string]artifact, error) {
	rng := rand.New(rand.NewSource(seed))
	codes := catalog.DefaultRegions().Codes()

	rows := make([]caseRow, n)
	for i := range rows {
		code, _ := strconv.Atoi(codes[rng.Intn(len(codes))])
		sexo := "Mujer"
		if rng.Intn(2) == 0 {
			sexo = "Hombre"
		}
		rows[i] = caseRow{EntResid: int32(code), Cluster: int64(rng.Intn(len(profiles))), Sexo: sexo}
	}

	var pq bytes.Buffer
	if err := parquet.Write(&pq, rows); err != nil {
		return nil, fmt.Errorf("parquet: %w", err)
	}
	casesBody, err := casesCSV(rows)
	if err != nil {
		return nil, err
	}
	profilesBody, err := profilesCSV(rows)
	if err != nil {
		return nil, err
	}
	geometryBody, err := geometry(codes)
	if err != nil {
		return nil, err
	}
	img, err := scatterPNG(rng, rows)
	if err != nil {
		return nil, err
	}

	return map[string]artifact{
		"casos.parquet": {contentType: "application/vnd.apache.parquet", body: pq.Bytes()},
		"casos.csv":     {contentType: "text/csv; charset=utf-8", body: casesBody},
		"perfiles.csv":  {contentType: "text/csv; charset=utf-8", body: profilesBody},
		"mexico.json":   {contentType: "application/geo+json", body: geometryBody},
		"13.tsne.PNG":   {contentType: "image/png", body: img},
	}, nil
}

func casesCSV(rows []caseRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"ent_resid", "cluster", "sexo"})
	for _, r := range rows {
		_ = w.Write([]string{strconv.Itoa(int(r.EntResid)), strconv.FormatInt(r.Cluster, 10), r.Sexo})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func profilesCSV(rows []caseRow) ([]byte, error) {
	sizes := make([]int, len(profiles))
	for _, r := range rows {
		sizes[r.Cluster]++
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Cluster", "Perfil", "Descripción", "Tamaño del Cluster"})
	for i, p := range profiles {
		_ = w.Write([]string{strconv.Itoa(i), p.name, p.description, strconv.Itoa(sizes[i])})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// geometry lays the entities out as unit squares on an 8-column grid.
func geometry(codes []string) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	regions := catalog.DefaultRegions()
	for i, code := range codes {
		x, y := float64(i%8), float64(i/8)
		f := geojson.NewFeature(orb.Polygon{orb.Ring{{x, y}, {x + 1, y}, {x + 1, y + 1}, {x, y + 1}, {x, y}}})
		f.Properties["CVE_ENT"] = code
		f.Properties["NOMGEO"] = regions.Name(code)
		fc.Append(f)
	}
	return fc.MarshalJSON()
}

func scatterPNG(rng *rand.Rand, rows []caseRow) ([]byte, error) {
	palette := []color.RGBA{{228, 26, 28, 255}, {55, 126, 184, 255}, {77, 175, 74, 255}, {152, 78, 163, 255}}
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for _, r := range rows {
		cx, cy := 64+int(r.Cluster%2)*128, 64+int(r.Cluster/2)*128
		img.Set(cx+int(rng.NormFloat64()*20), cy+int(rng.NormFloat64()*20), palette[int(r.Cluster)%len(palette)])
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
