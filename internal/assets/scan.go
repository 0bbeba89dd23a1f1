// Package assets discovers and parses the local descriptor files of a
// collection: collection.json plus 0.json..N-1.json, each next to its image.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"solana-nft-mint/internal/domain"
)

// CollectionFile is the descriptor name of the collection token.
const CollectionFile = "collection.json"

const jsonExt = ".json"

var (
	// ErrUnexpectedFile is returned for a JSON file that is neither
	// collection.json nor <index>.json.
	ErrUnexpectedFile = errors.New("unexpected descriptor file")

	// ErrIndexGap is returned when item indexes are not exactly 0..N-1.
	ErrIndexGap = errors.New("item descriptor indexes are not contiguous")

	// ErrCollectionDescriptor is returned when collection.json is missing or ambiguous.
	ErrCollectionDescriptor = errors.New("collection descriptor")
)

// Listing is the result of scanning an asset directory.
type Listing struct {
	Dir             string
	Collection      string   // path of collection.json
	CollectionFiles int      // number of collection descriptors found
	Items           []string // item descriptor paths, ordered by index
	JSONFiles       int      // all JSON files in the directory
}

// ItemCount returns the number of item descriptors.
func (l *Listing) ItemCount() int {
	return len(l.Items)
}

// Scan lists dir and partitions its JSON files into the collection
// descriptor and item descriptors ordered by numeric index.
// Subdirectories and non-JSON files are ignored.
func Scan(dir string) (*Listing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read asset dir: %w", err)
	}

	listing := &Listing{Dir: dir}
	byIndex := make(map[int]string)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), jsonExt) {
			continue
		}
		listing.JSONFiles++

		if strings.EqualFold(name, CollectionFile) {
			listing.CollectionFiles++
			listing.Collection = filepath.Join(dir, name)
			continue
		}

		index, ok := ItemIndex(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedFile, name)
		}
		byIndex[index] = filepath.Join(dir, name)
	}

	if listing.CollectionFiles != 1 {
		return nil, fmt.Errorf("%w: found %d %s files in %s, want 1",
			ErrCollectionDescriptor, listing.CollectionFiles, CollectionFile, dir)
	}

	indexes := make([]int, 0, len(byIndex))
	for index := range byIndex {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	for want, index := range indexes {
		if index != want {
			return nil, fmt.Errorf("%w: missing %d%s", ErrIndexGap, want, jsonExt)
		}
		listing.Items = append(listing.Items, byIndex[index])
	}

	return listing, nil
}

// ItemIndex parses the index of an item descriptor name such as "12.json".
// Leading zeros and signs are rejected so each index has one file name.
func ItemIndex(name string) (int, bool) {
	if !strings.EqualFold(filepath.Ext(name), jsonExt) {
		return 0, false
	}
	stem := name[:len(name)-len(jsonExt)]
	if stem == "" || (len(stem) > 1 && stem[0] == '0') {
		return 0, false
	}
	for _, c := range stem {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	index, err := strconv.Atoi(stem)
	if err != nil {
		return 0, false
	}
	return index, true
}

// DescriptorIndex maps a descriptor path to its index, CollectionIndex for
// collection.json.
func DescriptorIndex(path string) (int, error) {
	name := filepath.Base(path)
	if strings.EqualFold(name, CollectionFile) {
		return domain.CollectionIndex, nil
	}
	index, ok := ItemIndex(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnexpectedFile, name)
	}
	return index, nil
}
