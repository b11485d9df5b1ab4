package benchmark

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/sha256-simd"
)

// hostSuffixLen is the number of trailing hex characters of an object ID used to pick its host.
// The full 256-bit value is never converted to a number; only this suffix is.
const hostSuffixLen = 5

const objectPathPrefix = "/object/"

var ErrVUWithoutObject = errors.New("every virtual user needs its own object")

// Object is one provisioned object and the backend it lives on.
type Object struct {
	Index int
	ID    string
	Host  string
	URL   string
}

// ObjectSet is the immutable, ordered list of objects of one run. It is built before any request is
// sent and is shared read-only by setup, every virtual user and teardown.
type ObjectSet struct {
	runID   string
	objects []Object
}

// NewRunID returns a fresh random run identifier so that a run never collides with objects left
// behind by an earlier one.
func NewRunID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id.String(), nil
}

// ObjectID derives the identifier of object index within run runID as uppercase hex SHA-256.
func ObjectID(runID string, index int) string {
	sum := sha256.Sum256([]byte(runID + "/" + strconv.Itoa(index)))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// SelectHost maps an object ID onto one of hosts. The mapping depends only on its arguments.
func SelectHost(id string, hosts []string) (string, error) {
	if len(hosts) == 0 {
		return "", errors.New("no hosts to select from")
	}

	suffix := id
	if len(suffix) > hostSuffixLen {
		suffix = suffix[len(suffix)-hostSuffixLen:]
	}

	n, err := strconv.ParseUint(suffix, 16, 32)
	if err != nil {
		return "", fmt.Errorf("parse suffix '%v' of object id '%v': %w", suffix, id, err)
	}

	return hosts[n%uint64(len(hosts))], nil
}

// NewObjectSet computes the URLs of count objects spread over hosts.
func NewObjectSet(runID string, count int, hosts []string) (*ObjectSet, error) {
	if runID == "" {
		return nil, errors.New("run id must not be empty")
	}
	if count <= 0 {
		return nil, fmt.Errorf("object count %v must be > 0", count)
	}

	trimmed := make([]string, len(hosts))
	for i, host := range hosts {
		trimmed[i] = strings.TrimRight(host, "/")
	}

	objects := make([]Object, count)
	for i := range objects {
		id := ObjectID(runID, i)
		host, err := SelectHost(id, trimmed)
		if err != nil {
			return nil, fmt.Errorf("select host of object %v: %w", i, err)
		}

		objects[i] = Object{
			Index: i,
			ID:    id,
			Host:  host,
			URL:   host + objectPathPrefix + id,
		}
	}

	return &ObjectSet{runID: runID, objects: objects}, nil
}

// RunID returns the run identifier the object IDs were derived from.
func (s *ObjectSet) RunID() string { return s.runID }

// Len returns the number of provisioned objects.
func (s *ObjectSet) Len() int { return len(s.objects) }

// At returns the object with index i, or false if i is out of range.
func (s *ObjectSet) At(i int) (Object, bool) {
	if i < 0 || i >= len(s.objects) {
		return Object{}, false
	}
	return s.objects[i], true
}

// URLs returns a copy of all object URLs in index order.
func (s *ObjectSet) URLs() []string {
	urls := make([]string, len(s.objects))
	for i, o := range s.objects {
		urls[i] = o.URL
	}
	return urls
}

// ForVU returns the object owned by virtual user vu (1-based).
func (s *ObjectSet) ForVU(vu int) (Object, error) {
	obj, ok := s.At(vu - 1)
	if !ok {
		return Object{}, fmt.Errorf("virtual user %v with only %v objects provisioned: %w", vu, len(s.objects), ErrVUWithoutObject)
	}
	return obj, nil
}
