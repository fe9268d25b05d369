package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/ecovision/climate-analytics/internal/config"
	"github.com/ecovision/climate-analytics/internal/logging"
	"github.com/ecovision/climate-analytics/internal/storage"
)

// metricProfile shapes the synthetic series of one metric
type metricProfile struct {
	metric    storage.Metric
	base      float64 // annual mean
	amplitude float64 // seasonal swing around the mean
	noise     float64 // standard deviation of daily noise
	drift     float64 // change per year
	floor     *float64
}

var qualities = []string{"excellent", "good", "good", "good", "questionable", "poor"}

func main() {
	// Command line flags
	output := flag.String("output", "./data/sample_data.json", "Where to write the generated dataset")
	input := flag.String("input", "", "Load an existing dataset instead of generating one")
	configPath := flag.String("config", "", "Configuration file used with -load")
	load := flag.Bool("load", false, "Ingest the dataset into the configured storage")
	start := flag.String("start", "2021-01-01", "First observation date (YYYY-MM-DD)")
	days := flag.Int("days", 3*365, "Number of days to generate")
	step := flag.Int("step", 1, "Days between observations")
	outlierRate := flag.Float64("outliers", 0.002, "Share of observations replaced by outliers")
	seed := flag.Int64("seed", 42, "Random seed")

	flag.Parse()

	var ds *storage.Dataset
	if *input != "" {
		var err error
		ds, err = storage.LoadDataset(*input)
		if err != nil {
			log.Fatalf("Error reading dataset: %v\n", err)
		}
		fmt.Printf("Read %d locations, %d metrics, %d observations from %s\n",
			len(ds.Locations), len(ds.Metrics), len(ds.ClimateData), *input)
	} else {
		startDate, err := time.Parse(storage.DateLayout, *start)
		if err != nil {
			log.Fatalf("Error: Invalid start date '%s'. Expected YYYY-MM-DD\n", *start)
		}
		if *days <= 0 || *step <= 0 {
			log.Fatal("Error: -days and -step must be positive")
		}

		rng := rand.New(rand.NewSource(*seed))
		ds = generate(rng, startDate, *days, *step, *outlierRate)
		fmt.Printf("Generated %d observations\n", len(ds.ClimateData))

		if err := writeDataset(*output, ds); err != nil {
			log.Fatalf("Error writing dataset: %v\n", err)
		}
		fmt.Printf("Dataset saved to: %s\n", *output)
	}

	if !*load {
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v\n", err)
	}
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		log.Fatalf("Error creating logger: %v\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	repo, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		log.Fatalf("Error opening storage: %v\n", err)
	}
	defer func() { _ = repo.Close() }()

	report, err := repo.Ingest(ctx, ds)
	if err != nil {
		log.Fatalf("Error ingesting dataset: %v\n", err)
	}

	fmt.Printf("Ingested into %s storage: %d locations, %d metrics, %d records (%d duplicates, %d skipped)\n",
		cfg.Storage.Driver, report.Locations, report.Metrics, report.Records, report.Duplicates, len(report.Skipped))
	for _, s := range report.Skipped {
		fmt.Printf("  skipped %s %d: %s\n", s.Kind, s.ID, s.Reason)
	}
}

func generate(rng *rand.Rand, start time.Time, days, step int, outlierRate float64) *storage.Dataset {
	zero := 0.0
	locations := []storage.Location{
		{ID: 1, Name: "Irvine", Country: "USA", Latitude: 33.6846, Longitude: -117.8265, Region: "California"},
		{ID: 2, Name: "Tokyo", Country: "Japan", Latitude: 35.6762, Longitude: 139.6503, Region: "Kanto"},
		{ID: 3, Name: "Berlin", Country: "Germany", Latitude: 52.52, Longitude: 13.405, Region: "Brandenburg"},
		{ID: 4, Name: "Sydney", Country: "Australia", Latitude: -33.8688, Longitude: 151.2093, Region: "New South Wales"},
	}
	profiles := []metricProfile{
		{
			metric: storage.Metric{ID: 1, Name: "temperature", DisplayName: "Temperature", Unit: "celsius",
				Description: "Average daily temperature"},
			base: 16, amplitude: 9, noise: 2.5, drift: 0.3,
		},
		{
			metric: storage.Metric{ID: 2, Name: "precipitation", DisplayName: "Precipitation", Unit: "mm",
				Description: "Daily precipitation"},
			base: 3, amplitude: 2, noise: 2, drift: -0.1, floor: &zero,
		},
		{
			metric: storage.Metric{ID: 3, Name: "humidity", DisplayName: "Humidity", Unit: "percent",
				Description: "Average relative humidity"},
			base: 65, amplitude: 10, noise: 5, drift: 0, floor: &zero,
		},
	}

	ds := &storage.Dataset{Locations: locations}
	for _, p := range profiles {
		ds.Metrics = append(ds.Metrics, p.metric)
	}

	var id int64
	for _, loc := range locations {
		// Seasons are mirrored south of the equator
		phase := 0.0
		if loc.Latitude < 0 {
			phase = math.Pi
		}
		offset := rng.Float64()*4 - 2

		for _, p := range profiles {
			for d := 0; d < days; d += step {
				date := start.AddDate(0, 0, d)
				years := float64(d) / 365.25
				season := math.Cos(2*math.Pi*(float64(date.YearDay())-200)/365.25 + phase)

				value := p.base + offset + p.amplitude*season + p.drift*years + rng.NormFloat64()*p.noise
				if rng.Float64() < outlierRate {
					value += (6 + rng.Float64()*4) * p.noise * sign(rng)
				}
				if p.floor != nil && value < *p.floor {
					value = *p.floor
				}
				value = math.Round(value*100) / 100

				id++
				v := value
				ds.ClimateData = append(ds.ClimateData, storage.DatasetRecord{
					ID:         id,
					LocationID: loc.ID,
					MetricID:   p.metric.ID,
					Date:       date.Format(storage.DateLayout),
					Value:      &v,
					Quality:    qualities[rng.Intn(len(qualities))],
				})
			}
		}
	}
	return ds
}

func sign(rng *rand.Rand) float64 {
	if rng.Intn(2) == 0 {
		return -1
	}
	return 1
}

func writeDataset(path string, ds *storage.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(ds)
}
