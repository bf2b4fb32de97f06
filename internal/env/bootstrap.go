package env

import (
	"path/filepath"

	"jitsibot/internal/store/hsm"
	"jitsibot/internal/utils"
)

func NewBootstrapManager(storageDir string) *BootstrapManager {
	return &BootstrapManager{
		storageDir:        storageDir,
		filesystemHandler: utils.NewFilesystemExecutor(),
		hsmStoreHandler:   hsm.NewHsmStore(filepath.Join(storageDir, StateFileName)),
	}
}

type BootstrapManager struct {
	storageDir        string
	filesystemHandler utils.FilesystemHandler
	hsmStoreHandler   hsm.HsmStoreHandler
}

func (m *BootstrapManager) SetupRuntime() error {
	// 1. create runtime directories
	if err := m.setupRuntimeDirectory(); err != nil {
		return err
	}

	// 2. seed HSM (Horn State Management)
	if err := m.setupHsm(); err != nil {
		return err
	}

	return nil
}

func (m *BootstrapManager) setupRuntimeDirectory() error {
	dirs := []string{
		RootDir,
		LogDir,
		m.storageDir,
	}
	for _, dir := range dirs {
		if err := m.filesystemHandler.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func (m *BootstrapManager) setupHsm() error {
	return m.hsmStoreHandler.SetHornState()
}
