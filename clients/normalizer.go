package clients

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/acoustic-prep/config"
)

// Normalizer forwards statistics and conversion calls to a remote
// normalization service.
type Normalizer struct {
	http *HTTP
	url  string
	log  logrus.FieldLogger
}

func NewNormalizer(url string, log logrus.FieldLogger) *Normalizer {
	return &Normalizer{http: NewHTTP(), url: strings.TrimRight(url, "/"), log: log}
}

func (n *Normalizer) CalculateCMVN(ctx context.Context, split, lstDir, dataDir string, mt config.ModelType) error {
	out, err := n.http.CalculateCMVN(ctx, n.url, CMVNReq{Split: split, ListDir: lstDir, DataDir: dataDir, ModelType: string(mt)})
	if err != nil {
		return err
	}
	n.log.Infof("cmvn: %s statistics at %s (%d utterances, %d frames)", split, out.Path, out.Utterances, out.Frames)
	return nil
}

func (n *Normalizer) ConvertTo(ctx context.Context, split, listPath, dataDir string, mt config.ModelType) error {
	out, err := n.http.ConvertTo(ctx, n.url, ConvertReq{Split: split, ListPath: listPath, DataDir: dataDir, ModelType: string(mt)})
	if err != nil {
		return err
	}
	n.log.Infof("convert: %s converted %d utterances (%s)", split, out.Utterances, out.Status)
	return nil
}
