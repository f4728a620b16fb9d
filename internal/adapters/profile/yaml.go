package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"hubble-sync/internal/domain"
)

// YAMLStore хранит профиль устройства в YAML-файле.
type YAMLStore struct {
	mu   sync.Mutex
	path string
}

var _ domain.ProfileStore = (*YAMLStore)(nil)

// NewYAMLStore создаёт хранилище профиля по пути path.
func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

// Path возвращает путь к файлу профиля.
func (s *YAMLStore) Path() string { return s.path }

// Load читает профиль. Отсутствующий файл — пустой профиль без ошибки.
func (s *YAMLStore) Load() (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Profile{}, nil
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("чтение профиля: %w", err)
	}
	var p domain.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return domain.Profile{}, fmt.Errorf("разбор профиля: %w", err)
	}
	settings, err := domain.NormalizeSettings(p.Settings)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("настройки профиля: %w", err)
	}
	p.Settings = settings
	return p, nil
}

// Save атомарно записывает профиль: временный файл и rename.
func (s *YAMLStore) Save(p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("кодирование профиля: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("каталог профиля: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".profile-*.yaml")
	if err != nil {
		return fmt.Errorf("временный файл: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("запись профиля: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("права профиля: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("закрытие профиля: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("замена профиля: %w", err)
	}
	return nil
}
