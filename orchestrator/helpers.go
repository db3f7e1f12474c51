package orchestrator

import (
	"os"
	"path/filepath"

	"github.com/maastricht-university/acoustic-prep/catalog"
)

// Layout is the on-disk tree of one named run.
type Layout struct {
	Root        string `json:"root"`
	Raw         string `json:"raw"`
	LabelDir    string `json:"label_dir"`     // raw_<name>/prepared_label
	CmpDir      string `json:"cmp_dir"`       // raw_<name>/prepared_cmp
	LabelScpDir string `json:"label_scp_dir"` // .../prepared_label/label_scp
	ParamScpDir string `json:"param_scp_dir"` // .../prepared_cmp/param_scp
	ListDir     string `json:"list_dir"`      // config_<name>
	DataDir     string `json:"data_dir"`      // data_<name>
}

// NewLayout resolves the run tree for name under root as absolute paths.
func NewLayout(root, name string) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, err
	}
	raw := filepath.Join(abs, "raw_"+name)
	l := Layout{
		Root:     abs,
		Raw:      raw,
		LabelDir: filepath.Join(raw, "prepared_label"),
		CmpDir:   filepath.Join(raw, "prepared_cmp"),
		ListDir:  filepath.Join(abs, "config_"+name),
		DataDir:  filepath.Join(abs, "data_"+name),
	}
	l.LabelScpDir = filepath.Join(l.LabelDir, catalog.LabelManifestDir)
	l.ParamScpDir = filepath.Join(l.CmpDir, catalog.ParamManifestDir)
	return l, nil
}

// ensure creates the directories every stage writes into.
func (l Layout) ensure() error {
	for _, d := range []string{l.Raw, l.ListDir, l.DataDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}
