package main

import (
	"encoding/json"
	"fmt"
	"os"

	geometry "github.com/nd-flow/geometry_go/pkg"
)

func LoadConfiguration(filename string) (geometry.Configuration, error) {
	var config geometry.Configuration

	// Set default values
	config.Verbosity = 0
	config.RunNumber = 0
	config.NoDB = false
	config.Host = "nd-conditions.fnal.gov"
	config.User = "ndreader"
	config.Passwd = "readonly"
	config.DBName = "ND2x2"
	config.FileOut = "geometry.h5"
	config.Path = "geometry_info"
	config.BeamDirection = "z"
	config.DriftDirection = "x"
	config.CompressionLevel = 4

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func printConfiguration(config geometry.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Tile layout file: %s", config.TileLayoutFile), "config")
	logger.Info(fmt.Sprintf("Detector file: %s", config.DetectorFile), "config")
	logger.Info(fmt.Sprintf("Light layout file: %s", config.LightLayoutFile), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Path: %s", config.Path), "config")
	logger.Info(fmt.Sprintf("Beam direction: %s", config.BeamDirection), "config")
	logger.Info(fmt.Sprintf("Drift direction: %s", config.DriftDirection), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
}
