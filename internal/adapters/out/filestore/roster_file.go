package filestore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gopkg.in/yaml.v3"
)

var _ ports.ParticipantRegistry = (*RosterFile)(nil)

type courierEntry struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name,omitempty"`
}

type requesterEntry struct {
	ID     int64  `yaml:"id"`
	Name   string `yaml:"name,omitempty"`
	Tariff string `yaml:"tariff,omitempty"`
}

type roster struct {
	Couriers   []courierEntry   `yaml:"couriers"`
	Requesters []requesterEntry `yaml:"requesters"`
	Blocked    []int64          `yaml:"blocked"`
}

// RosterFile is a ParticipantRegistry over a YAML document such as
//
//	couriers:
//	  - id: 7
//	    name: Ivan
//	requesters:
//	  - id: 100
//	    tariff: 5/8
//	blocked: [9]
//
// The file is owned by the registration flow and re-read on every call; only
// Block writes to it.
type RosterFile struct {
	mu   sync.Mutex
	path string
}

func NewRosterFile(path string) (*RosterFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errs.NewValueIsRequiredError("roster path")
	}
	return &RosterFile{path: path}, nil
}

func (r *RosterFile) IsRegisteredWorker(_ context.Context, id kernel.ParticipantID) (bool, error) {
	ros, err := r.read()
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(ros.Couriers, func(c courierEntry) bool { return c.ID == id.Int64() }), nil
}

func (r *RosterFile) IsBlocked(_ context.Context, id kernel.ParticipantID) (bool, error) {
	ros, err := r.read()
	if err != nil {
		return false, err
	}
	return slices.Contains(ros.Blocked, id.Int64()), nil
}

func (r *RosterFile) WorkerDisplayName(_ context.Context, id kernel.ParticipantID) (string, error) {
	ros, err := r.read()
	if err != nil {
		return "", err
	}
	for _, c := range ros.Couriers {
		if c.ID == id.Int64() && strings.TrimSpace(c.Name) != "" {
			return c.Name, nil
		}
	}
	return id.String(), nil
}

func (r *RosterFile) RequesterTariff(_ context.Context, id kernel.ParticipantID) (kernel.Tariff, error) {
	ros, err := r.read()
	if err != nil {
		return kernel.Tariff{}, err
	}
	for _, req := range ros.Requesters {
		if req.ID != id.Int64() || strings.TrimSpace(req.Tariff) == "" {
			continue
		}
		tariff, err := kernel.ParseTariff(req.Tariff)
		if err != nil {
			return kernel.Tariff{}, fmt.Errorf("requester %s: %w", id, err)
		}
		return tariff, nil
	}
	return kernel.DefaultTariff(), nil
}

func (r *RosterFile) Block(_ context.Context, id kernel.ParticipantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ros, err := r.read()
	if err != nil {
		return err
	}
	if slices.Contains(ros.Blocked, id.Int64()) {
		return nil
	}
	ros.Blocked = append(ros.Blocked, id.Int64())

	data, err := yaml.Marshal(ros)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	return writeFileAtomic(r.path, data)
}

func (r *RosterFile) read() (roster, error) {
	var ros roster
	data, err := readFileIfExists(r.path)
	if err != nil {
		return ros, fmt.Errorf("read roster: %w", err)
	}
	if err = yaml.Unmarshal(data, &ros); err != nil {
		return ros, fmt.Errorf("parse roster %s: %w", r.path, err)
	}
	return ros, nil
}
