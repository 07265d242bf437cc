package scan

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

func TestExpand_DirectoryTopLevelOnlyByDefault(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/media/b.srt")
	touch(t, fsys, "/media/A.mkv")
	touch(t, fsys, "/media/notes.txt")
	touch(t, fsys, "/media/season2/C.mkv")

	got, err := Expand(fsys, []string{"/media"}, Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []string{"/media/A.mkv", "/media/b.srt"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestExpand_RecursiveWithExcludeDirs(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/media/A.mkv")
	touch(t, fsys, "/media/s2/B.mkv")
	touch(t, fsys, "/media/s2/B.ass")
	touch(t, fsys, "/media/temp/X.mkv")
	touch(t, fsys, "/other/Y.srt")

	got, err := Expand(fsys, []string{"/media"}, Options{Recursive: true, ExcludeDirs: []string{"temp", "/other"}})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []string{"/media/A.mkv", "/media/s2/B.ass", "/media/s2/B.mkv"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestExpand_FilesPassThroughInOrderAndDedupe(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/d/A.mkv")
	touch(t, fsys, "/d/a.srt")

	got, err := Expand(fsys, []string{"/d/a.srt", "/missing/x.srt", "/d/../d/a.srt", "/d", "  "}, Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 不存在的输入保留；目录展开时已出现过的 a.srt 不再重复。
	want := []string{"/d/a.srt", "/missing/x.srt", "/d/A.mkv"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestExpand_RelativeInputsBecomeAbsolute(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Movie.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	chdirForTest(t, dir)

	got, err := Expand(nil, []string{"Movie.mkv", "."}, Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 || !filepath.IsAbs(got[0]) || filepath.Base(got[0]) != "Movie.mkv" {
		t.Fatalf("期望 1 个绝对路径，实际：%v", got)
	}
}

func TestExpand_ExtCaseInsensitive(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/m/X.MP4")
	touch(t, fsys, "/m/x.SRT")

	got, err := Expand(fsys, []string{"/m"}, Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望 2 个媒体文件，实际 %v", got)
	}
}

func touch(t *testing.T, fsys afero.Fs, path string) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := afero.WriteFile(fsys, path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}

// chdirForTest 等价于 Go 1.24 的 t.Chdir：切换工作目录并在测试结束时恢复。
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("获取工作目录失败：%v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("切换工作目录失败：%v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("恢复工作目录失败：%v", err)
		}
	})
}
