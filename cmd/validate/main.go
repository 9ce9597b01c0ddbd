package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"go-realtone/internal/analyzer"
	"go-realtone/internal/config"
	"go-realtone/internal/logger"
	"go-realtone/internal/realtone"
	"go-realtone/internal/repository"
	"go-realtone/internal/storage"
	"go-realtone/internal/strategy"
	"go-realtone/pkg/validation"
)

var (
	fProfile string
	fImage   string
	fJSON    bool
	fSampler string
	fRegion  string
)

func init() {
	flag.StringVar(&fProfile, "profile", "", "YAML processor profile to apply before deriving")
	flag.StringVar(&fImage, "image", "", "local image to sample and classify")
	flag.BoolVar(&fJSON, "json", false, "emit the settings bundles as JSON")
	flag.StringVar(&fSampler, "sampler", analyzer.ProfileDefault, "skin sampler profile: default, fast or strict")
	flag.StringVar(&fRegion, "region", strategy.NameCenter, "region to sample when classifying an image: center or full")
}

func main() {
	flag.Parse()

	var opts []realtone.Option
	if fProfile != "" {
		profile, err := config.LoadProfile(fProfile)
		if err != nil {
			log.Fatal(err)
		}
		opts = append(opts, realtone.WithConfig(profile))
	}
	engine := realtone.NewEngine(opts...)

	if fImage != "" {
		if err := classifyImage(engine, fImage); err != nil {
			log.Fatal(err)
		}
		return
	}

	if fJSON {
		bundles := make([]realtone.SettingsBundle, 0, len(realtone.Scale))
		for _, c := range realtone.Categories() {
			bundles = append(bundles, engine.OptimizedSettings(c))
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(bundles); err != nil {
			log.Fatal(err)
		}
		return
	}

	printTable(engine)
}

// printTable classifies each reference color and lists what it derives to.
// Every row must classify back to its own category.
func printTable(engine *realtone.Engine) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tRGB\tCLASSIFIED\tEV\tTEMP\tSHADOWS\tISO")

	mismatches := 0
	for _, c := range realtone.Categories() {
		sample := realtone.SampledColor{
			R: float64(c.Reference[0]),
			G: float64(c.Reference[1]),
			B: float64(c.Reference[2]),
		}
		got := engine.Classify(&sample)
		if got.ID != c.ID {
			mismatches++
		}
		s := engine.OptimizedSettings(c)
		fmt.Fprintf(w, "%d\t%s\t%v\t%d\t%+.2f\t%.3f\t%.3f\t%d\n",
			c.ID, c.Name, c.Reference, got.ID, s.Exposure, s.WhiteBalance.Temperature, s.Shadows, s.ISO)
	}
	w.Flush()

	if mismatches > 0 {
		log.Fatalf("%d reference colors classified to the wrong category", mismatches)
	}
}

// classifyImage runs the same detector the service uses, so an image it
// reports as undetected is rejected here too.
func classifyImage(engine *realtone.Engine, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	fetcher, err := storage.NewLocalFileFetcher(filepath.Dir(abs))
	if err != nil {
		return err
	}
	repo := repository.NewRoutingImageRepository(validation.NewReferenceValidatorWithOptions([]string{"file"}, nil))
	repo.Register(fetcher, "file")

	opts, err := analyzer.OptionsForProfile(fSampler)
	if err != nil {
		return err
	}
	var regions strategy.RegionStrategy
	switch fRegion {
	case strategy.NameCenter:
		regions = strategy.NewCenterStrategy()
	case strategy.NameFullFrame:
		regions = strategy.NewFullFrameStrategy()
	default:
		return fmt.Errorf("unknown region %q", fRegion)
	}

	detector := analyzer.NewPixelDetector(repo, regions, analyzer.NewSkinSampler(opts), nil, logger.Component("validate"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	analysis, err := detector.DetectSkinTone(ctx, filepath.Base(abs), nil)
	if err != nil {
		return err
	}
	if !analysis.Detected {
		return fmt.Errorf("%s: no skin tone detected (coverage %.1f%%): %s",
			path, analysis.SkinCoverage*100, strings.Join(analysis.Issues, " "))
	}

	category := analysis.MSTCategory
	settings := engine.OptimizedSettings(category)

	fmt.Printf("%s: MST %d (%s), confidence %.2f, coverage %.0f%%\n",
		path, category.ID, category.Name, analysis.Confidence, analysis.SkinCoverage*100)
	fmt.Printf("  exposure %+.2f EV, ISO %d, warmth %.3f, shadows %.3f, highlights %.3f\n",
		settings.Exposure, settings.ISO, settings.Warmth, settings.Shadows, settings.Highlights)
	for _, issue := range analysis.Issues {
		fmt.Printf("  note: %s\n", issue)
	}
	return nil
}
