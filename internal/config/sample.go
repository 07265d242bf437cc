package config

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/John-Robertt/SubRenamer/internal/infra/fsx"
)

// ErrSampleExists 表示目标位置已有配置文件且未允许覆盖。
var ErrSampleExists = errors.New("配置文件已存在")

const sampleHeader = "# SubRenamer 配置文件\n# 所有字段都可以用环境变量覆盖，例如 SUBRENAME_THRESHOLD=0.6\n\n"

// SampleTOML 返回带注释的默认配置。
func SampleTOML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(sampleHeader)
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(Defaults()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CreateSample 把默认配置写入 path（原子写）。overwrite=false 时不覆盖已有文件。
func CreateSample(path string, overwrite bool) error {
	path = filepath.Clean(path)
	fsys := fsx.OS()

	exists, err := fsx.Exists(fsys, path)
	if err != nil {
		return err
	}
	if exists && !overwrite {
		return fmt.Errorf("%w：%s（使用 --overwrite 覆盖）", ErrSampleExists, path)
	}

	data, err := SampleTOML()
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(fsys, filepath.Dir(path), filepath.Base(path), data)
}
