// Package descriptor loads the strdeploy.yml deployment descriptor.
// This package implements the domain.DescriptorLoader interface using yaml.v3.
package descriptor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/strdeploy/internal/domain"
)

// file mirrors the on-disk layout of strdeploy.yml.
type file struct {
	Tenant    string    `yaml:"tenant"`
	Namespace string    `yaml:"namespace"`
	Mode      string    `yaml:"mode"`
	Image     imageFile `yaml:"image"`
}

type imageFile struct {
	Namespace string `yaml:"namespace"`
	Name      string `yaml:"name"`
}

// YAMLLoader reads strdeploy.yml from a project directory.
type YAMLLoader struct {
	fileName string
}

// NewYAMLLoader creates a loader for the default descriptor file name.
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{fileName: domain.DescriptorFileName}
}

// Load implements domain.DescriptorLoader.
func (l *YAMLLoader) Load(_ context.Context, workdir string) (*domain.DeploymentConfig, error) {
	path := filepath.Join(workdir, l.fileName)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrConfigMissing, path, err)
	}

	return Parse(data)
}

// Parse decodes and validates descriptor content.
func Parse(data []byte) (*domain.DeploymentConfig, error) {
	var raw file
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigMalformed, err)
	}

	var missing []string
	for _, f := range []struct {
		key   string
		value string
	}{
		{"tenant", raw.Tenant},
		{"namespace", raw.Namespace},
		{"mode", raw.Mode},
		{"image.namespace", raw.Image.Namespace},
		{"image.name", raw.Image.Name},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s",
			domain.ErrConfigMalformed, strings.Join(missing, ", "))
	}

	mode, err := domain.ParseMode(raw.Mode)
	if err != nil {
		return nil, err
	}

	return &domain.DeploymentConfig{
		Tenant:    raw.Tenant,
		Namespace: raw.Namespace,
		Mode:      mode,
		Image: domain.ImageSpec{
			Namespace: raw.Image.Namespace,
			Name:      raw.Image.Name,
		},
	}, nil
}
