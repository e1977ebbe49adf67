// Package main provides the oceans API HTTP server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.ngs.io/oceans-api/internal/adapter/store"
	"go.ngs.io/oceans-api/internal/adapter/store/native"
	"go.ngs.io/oceans-api/internal/adapter/store/netcdf"
	"go.ngs.io/oceans-api/internal/config"
	"go.ngs.io/oceans-api/internal/domain"
	httpHandler "go.ngs.io/oceans-api/internal/http"
	"go.ngs.io/oceans-api/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("oceans-api version %s\n", version)
		return
	}

	// Load configuration from environment.
	port := getEnv("PORT", "8080")
	dataDir := getEnv("OCEANSDB_DIR", config.DefaultDataDir)
	catalogPath := getEnv("OCEANSDB_CATALOG", "")
	driver := getEnv("NETCDF_DRIVER", "cgo")

	log.Printf("Starting Oceans API server...")
	log.Printf("Port: %s", port)
	log.Printf("Data directory: %s", dataDir)
	log.Printf("NetCDF driver: %s", driver)

	catalog := config.Default(dataDir)
	if catalogPath != "" {
		log.Printf("Catalog: %s", catalogPath)
		var err error
		catalog, err = config.Load(catalogPath, dataDir)
		if err != nil {
			log.Fatalf("Failed to load catalog: %v", err)
		}
	}

	opener, err := openerFor(driver)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Open datasets.
	registry := store.NewRegistry(catalog, opener)
	if err := registry.Open(); err != nil {
		log.Fatalf("Failed to open datasets: %v", err)
	}
	defer func() {
		if err := registry.Close(); err != nil {
			log.Printf("Warning: %v", err)
		}
	}()

	// Initialize use case.
	extractionUC := usecase.NewExtractionUseCase(registry)

	// Setup router.
	router := httpHandler.SetupRouter(extractionUC)

	// Start server.
	addr := fmt.Sprintf(":%s", port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Health check: http://localhost:%s/health", port)
	log.Printf("API endpoints:")
	log.Printf("  - GET /v1/datasets")
	for _, d := range registry.Datasets() {
		if !d.Available {
			continue
		}
		prefix := "/v1/" + strings.ToLower(d.Family.String()) + "/" + d.Kind.String()
		log.Printf("  - GET %s/extract", prefix)
		log.Printf("  - GET %s/track", prefix)
	}
	log.Printf("  - GET /metrics")

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openerFor selects the NetCDF reader.
func openerFor(driver string) (domain.Opener, error) {
	switch strings.ToLower(driver) {
	case "cgo", "":
		return netcdf.Opener, nil
	case "native":
		return native.Opener, nil
	}
	return nil, domain.Configf("unknown NETCDF_DRIVER %q (expected cgo or native)", driver)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Oceans API Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  oceans-api [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  OCEANSDB_DIR            Climatology data directory (default: ~/.config/oceansdb)")
	fmt.Println("  OCEANSDB_CATALOG        YAML dataset catalog (default: built-in WOA13, CARS2009, ETOPO5)")
	fmt.Println("  NETCDF_DRIVER           cgo (netCDF-C library) or native (pure Go) (default: cgo)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start server with default settings")
	fmt.Println("  oceans-api")
	fmt.Println()
	fmt.Println("  # Serve generated demo data with the pure Go reader")
	fmt.Println("  OCEANSDB_DIR=./data NETCDF_DRIVER=native oceans-api")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                         Health check")
	fmt.Println("  GET /v1/datasets                    List configured datasets")
	fmt.Println("  GET /v1/{family}/{kind}/extract     Extract on the grid of the requested coordinates")
	fmt.Println("  GET /v1/{family}/{kind}/track       Extract along a track (lat[i], lon[i])")
	fmt.Println("  GET /metrics                        Prometheus metrics")
	fmt.Println()
	fmt.Println("QUERY PARAMETERS:")
	fmt.Println("  var=mn,sd  doy=136 | date=2024-05-15  depth=0,10  lat=17.5  lon=-37.5  mode=nearest")
	fmt.Println()
}
