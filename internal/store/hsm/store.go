package hsm

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"jitsibot/internal/utils"

	"golang.org/x/sys/unix"
)

func NewHsmStore(path string) *HsmStore {
	return &HsmStore{
		path:              path,
		filesystemHandler: utils.NewFilesystemExecutor(),
	}
}

type HsmStore struct {
	path              string
	mu                sync.Mutex
	filesystemHandler utils.FilesystemHandler
}

func (s *HsmStore) withLock(fn func(st *HornState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockPath := s.path + ".lock"
	if err := s.filesystemHandler.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	lf, err := s.filesystemHandler.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	defer lf.Close()

	if err := s.filesystemHandler.Flock(int(lf.Fd()), unix.LOCK_EX); err != nil {
		return err
	}
	defer s.filesystemHandler.Flock(int(lf.Fd()), unix.LOCK_UN)

	st, err := s.loadOrInit()
	if err != nil {
		return err
	}

	if err := fn(st); err != nil {
		return err
	}

	return s.atomicSave(st)
}

func (s *HsmStore) withRLock(fn func(st *HornState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockPath := s.path + ".lock"
	if err := s.filesystemHandler.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	lf, err := s.filesystemHandler.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	defer lf.Close()

	if err := s.filesystemHandler.Flock(int(lf.Fd()), unix.LOCK_EX); err != nil {
		return err
	}
	defer s.filesystemHandler.Flock(int(lf.Fd()), unix.LOCK_UN)

	st, err := s.loadOrInit()
	if err != nil {
		return err
	}

	return fn(st)
}

func (s *HsmStore) loadOrInit() (*HornState, error) {
	b, err := s.filesystemHandler.ReadFile(s.path)
	if err != nil {
		if s.filesystemHandler.IsNotExist(err) {
			return &HornState{
				Version:        stateVersion,
				ApiResetPeriod: defaultApiResetPeriod,
			}, nil
		}
		return nil, err
	}

	var st HornState
	if err := json.Unmarshal(b, &st); err != nil {
		// the next save overwrites the broken file
		log.Printf("hsm: horn state json broken, starting from zero state: %v", err)
		return &HornState{
			Version:        stateVersion,
			ApiResetPeriod: defaultApiResetPeriod,
		}, nil
	}
	if st.ApiResetPeriod <= 0 {
		st.ApiResetPeriod = defaultApiResetPeriod
	}
	return &st, nil
}

func (s *HsmStore) atomicSave(st *HornState) error {
	tmp := s.path + ".tmp"

	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	f, err := s.filesystemHandler.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return s.filesystemHandler.Rename(tmp, s.path)
}

func (s *HsmStore) SetHornState() error {
	return s.withLock(func(st *HornState) error {
		st.Version = stateVersion
		if st.ApiResetPeriod <= 0 {
			st.ApiResetPeriod = defaultApiResetPeriod
		}
		return nil
	})
}
