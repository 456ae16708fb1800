package filestore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/rotation"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gopkg.in/yaml.v3"
)

var (
	_ ports.RotationRepository = (*StateFile)(nil)
	_ ports.OrderSequence      = (*StateFile)(nil)
)

type rotationState struct {
	Members []int64 `yaml:"members"`
	Cursor  int     `yaml:"cursor"`
}

type engineState struct {
	Rotation    rotationState `yaml:"rotation"`
	LastOrderID int64         `yaml:"last_order_id"`
}

// StateFile keeps rotation membership, the rotation cursor and the last
// issued order id in one YAML document.
type StateFile struct {
	mu   sync.Mutex
	path string
}

func NewStateFile(path string) (*StateFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errs.NewValueIsRequiredError("state path")
	}
	return &StateFile{path: path}, nil
}

func (s *StateFile) Load(_ context.Context) (*rotation.Queue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.read()
	if err != nil {
		return nil, err
	}
	members := make([]kernel.ParticipantID, len(st.Rotation.Members))
	for i, m := range st.Rotation.Members {
		members[i] = kernel.ParticipantID(m)
	}
	return rotation.RestoreQueue(members, st.Rotation.Cursor)
}

func (s *StateFile) Save(_ context.Context, queue *rotation.Queue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.read()
	if err != nil {
		return err
	}
	members := queue.Members()
	st.Rotation.Members = make([]int64, len(members))
	for i, m := range members {
		st.Rotation.Members[i] = m.Int64()
	}
	st.Rotation.Cursor = queue.Cursor()
	return s.write(st)
}

// Next issues the next order id and persists it before returning.
func (s *StateFile) Next(_ context.Context) (kernel.OrderID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.read()
	if err != nil {
		return 0, err
	}
	st.LastOrderID++
	if err = s.write(st); err != nil {
		return 0, err
	}
	return kernel.NewOrderID(st.LastOrderID)
}

func (s *StateFile) read() (engineState, error) {
	var st engineState
	data, err := readFileIfExists(s.path)
	if err != nil {
		return st, fmt.Errorf("read state: %w", err)
	}
	if err = yaml.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("parse state %s: %w", s.path, err)
	}
	return st, nil
}

func (s *StateFile) write(st engineState) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return writeFileAtomic(s.path, data)
}
