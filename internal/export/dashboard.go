package export

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"droneops-scout/internal/telemetry"
)

//go:embed templates/*.json.tmpl
var dashboards embed.FS

// RenderDashboards writes the Grafana dashboards for the mission tables to
// outDir. Templates read the datasource UID from GREPTIMEDB_DATASOURCE_UID.
func RenderDashboards(outDir string) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
		"poseTable":        func() string { return telemetry.PoseTableName },
		"observationTable": func() string { return telemetry.ObservationTableName },
		"targetTable":      func() string { return telemetry.TargetTableName },
		"stateTable":       func() string { return telemetry.StateTableName },
	}

	names, err := dashboards.ReadDir("templates")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, e := range names {
		name := e.Name()
		t, err := template.New(name).Funcs(funcMap).ParseFS(dashboards, "templates/"+name)
		if err != nil {
			return err
		}
		var b strings.Builder
		if err := t.Execute(&b, nil); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
			return err
		}
	}
	return nil
}
