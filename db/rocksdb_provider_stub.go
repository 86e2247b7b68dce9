//go:build !rocksdb
// +build !rocksdb

package db

import "fmt"

// NewRocksDBProvider fails unless the binary was built with the rocksdb tag
func NewRocksDBProvider(directory string) (DatabaseProvider, error) {
	return nil, fmt.Errorf("chain store %s: rocksdb provider not built in, rebuild lightsync with -tags rocksdb or use store type leveldb", directory)
}
