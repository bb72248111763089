// Package service wires configured stores, storages, key map and indexer into
// one forward index that programs can embed without shelling out to the CLI.
package service
