package infra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FileTableSource carrega a tabela de um arquivo YAML (ou JSON, que é YAML válido)
// no formato `{ID: Cidade}` e recarrega quando o arquivo muda.
//
// Falha de leitura mantém a tabela anterior (ou nenhuma).
type FileTableSource struct {
	path   string
	holder *TableHolder
	log    *zap.Logger
}

func NewFileTableSource(path string, holder *TableHolder, log *zap.Logger) *FileTableSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileTableSource{path: path, holder: holder, log: log}
}

func ReadTableFile(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table file: %w", err)
	}
	var m map[string]string
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode table file %s: %w", path, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

// Load lê o arquivo e publica a tabela no holder.
func (s *FileTableSource) Load() error {
	m, err := ReadTableFile(s.path)
	if err != nil {
		return err
	}
	s.holder.Store(m)
	s.log.Info("locality table loaded", zap.String("path", s.path), zap.Int("entries", s.holder.Len()))
	return nil
}

// Watch recarrega a tabela em Write/Create/Rename do arquivo até o ctx encerrar.
// Observa o diretório para sobreviver a editores que substituem o arquivo.
func (s *FileTableSource) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", s.path, err)
	}

	target := filepath.Clean(s.path)
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if err := s.Load(); err != nil {
					s.log.Warn("locality table reload failed", zap.String("path", s.path), zap.Error(err))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warn("locality table watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
