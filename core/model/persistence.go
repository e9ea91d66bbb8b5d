package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// SaveWeights は重みを gob 形式でファイルに保存する
//
// 使用例:
//
//	err := model.SaveWeights(m.Weights(), "theta.gob")
func SaveWeights(w *ModelWeights, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create %s", filename)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", filename)
		}
	}()
	return WriteWeights(w, file)
}

// LoadWeights はファイルから重みを読み込み、検証する
func LoadWeights(filename string) (*ModelWeights, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", filename)
	}
	defer file.Close()
	return ReadWeights(file)
}

// WriteWeights は重みを io.Writer に gob で書き出す
func WriteWeights(w *ModelWeights, out io.Writer) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if err := gob.NewEncoder(out).Encode(w); err != nil {
		return errors.Wrap(err, "encode model weights")
	}
	return nil
}

// ReadWeights は io.Reader から gob 形式の重みを読み込む
func ReadWeights(r io.Reader) (*ModelWeights, error) {
	var w ModelWeights
	if err := gob.NewDecoder(r).Decode(&w); err != nil {
		return nil, errors.Wrap(err, "decode model weights")
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}
