package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	sqlx "github.com/jmoiron/sqlx"
	geometry "github.com/nd-flow/geometry_go/pkg"
)

var dbConn *sqlx.DB
var configuration geometry.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

type Logger struct {
	InfoLog  *slog.Logger
	ErrorLog *slog.Logger
}

func (l Logger) Info(message string, module string) {
	l.InfoLog.Info(message, "module", module)
}

func (l Logger) Error(message string) {
	l.ErrorLog.Error(message)
}

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	rebuild := flag.Bool("rebuild", false, "Rebuild geometry even if the output file already holds it")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	geometry.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	if !configuration.NoDB {
		dbConn, err = geometry.ConnectToDatabase(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
		if err != nil {
			message := fmt.Errorf("Error connecting to database: %w", err)
			logger.Error(message.Error())
			os.Exit(1)
		}
		defer dbConn.Close()

		files, err := geometry.GetGeometryFilesFromDB(dbConn, configuration.RunNumber)
		if err != nil {
			message := fmt.Errorf("Error resolving geometry files for run %d: %w", configuration.RunNumber, err)
			logger.Error(message.Error())
			os.Exit(1)
		}
		configuration.TileLayoutFile = files.TileLayoutFile
		configuration.DetectorFile = files.DetectorFile
		configuration.LightLayoutFile = files.LightLayoutFile
	}
	geometry.SetConfiguration(configuration)

	store := geometry.NewHDF5Store(configuration.FileOut, configuration.Path)
	if *rebuild {
		if err := os.Remove(configuration.FileOut); err != nil && !os.IsNotExist(err) {
			logger.Error(fmt.Sprintf("Error removing %s: %v", configuration.FileOut, err))
			os.Exit(1)
		}
	}

	state, err := geometry.LoadOrBuildGeometry(configuration, store)
	if err != nil {
		message := fmt.Errorf("Error loading geometry: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}

	printGeometrySummary(state, logger)
}

func printGeometrySummary(state *geometry.GeometryState, logger Logger) {
	logger.Info(fmt.Sprintf("Geometry LUT(s) size: %.2fMB", float64(state.LUTBytes())/1024/1024), "main")
	logger.Info(fmt.Sprintf("Pixel pitch: %.2f mm", state.PixelPitch), "main")
	logger.Info(fmt.Sprintf("Max drift distance: %.2f mm", state.MaxDriftDistance), "main")
	logger.Info(fmt.Sprintf("Cathode thickness: %.2f mm", state.CathodeThickness), "main")
	logger.Info(fmt.Sprintf("Detector bounds: %v mm", state.DetectorBounds), "main")
	for i, bounds := range state.ModuleBounds {
		logger.Info(fmt.Sprintf("Module %d readout bounds: %v mm", i+1, bounds), "main")
	}
	logger.Info(fmt.Sprintf("Beam direction: %s", state.BeamDirection), "main")
	logger.Info(fmt.Sprintf("Drift direction: %s", state.DriftDirection), "main")
}
