package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"github.com/John-Robertt/SubRenamer/internal/config"
	"github.com/John-Robertt/SubRenamer/internal/domain"
	"github.com/John-Robertt/SubRenamer/internal/infra/batchstore"
)

type cliEnv struct {
	root     string
	stateDir string
}

// setupCLI 隔离配置目录/环境变量，并切到一个空的工作目录。
func setupCLI(t *testing.T) cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(base, "cache"))
	for _, k := range []string{"THRESHOLD", "DIR_BONUS", "RECURSIVE", "EXCLUDE_DIRS", "APPLY", "STATE_DIR", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(config.EnvPrefix+"_"+k, "")
		os.Unsetenv(config.EnvPrefix + "_" + k)
	}

	root := filepath.Join(base, "work")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	chdirForTest(t, root)
	return cliEnv{root: root, stateDir: filepath.Join(base, "state")}
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func decodeReport(t *testing.T, stdout string) domain.RunReport {
	t.Helper()
	var rr domain.RunReport
	if err := json.Unmarshal([]byte(stdout), &rr); err != nil {
		t.Fatalf("stdout 不是 RunReport JSON：%v\n%s", err, stdout)
	}
	return rr
}

func TestMatch_PrintsRecordsAsJSON(t *testing.T) {
	env := setupCLI(t)
	dir := filepath.Join(env.root, "show")
	touch(t, filepath.Join(dir, "Show.S01E01.1080p.mkv"), "v")
	touch(t, filepath.Join(dir, "[Fansub] Show - 01 (1080p).srt"), "s")

	stdout, _, err := runCLI(t, "match", dir)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	var recs []domain.MatchRecord
	if err := json.Unmarshal([]byte(stdout), &recs); err != nil {
		t.Fatalf("stdout 不是 JSON：%v\n%s", err, stdout)
	}
	if len(recs) != 1 || !recs[0].IsMatched() {
		t.Fatalf("期望 1 组配对：%+v", recs)
	}
	if want := filepath.Join(dir, "Show.S01E01.1080p.srt"); recs[0].ProposedSubtitlePath != want {
		t.Fatalf("期望目标 %q，实际 %q", want, recs[0].ProposedSubtitlePath)
	}
	// match 不修改文件。
	if !fileExists(filepath.Join(dir, "[Fansub] Show - 01 (1080p).srt")) {
		t.Fatalf("match 不应移动文件")
	}
}

func TestRename_DryRunThenApply(t *testing.T) {
	env := setupCLI(t)
	video := filepath.Join(env.root, "Movie.2020.mkv")
	sub := filepath.Join(env.root, "movie.2020.eng.srt")
	touch(t, video, "v")
	touch(t, sub, "s")

	stdout, stderr, err := runCLI(t, "rename", video, sub)
	if err != nil {
		t.Fatalf("dry-run 不期望错误：%v\n%s", err, stderr)
	}
	rr := decodeReport(t, stdout)
	if !rr.DryRun || rr.Summary.Matched != 1 || len(rr.Results) != 0 {
		t.Fatalf("dry-run 报告不正确：%+v", rr)
	}
	if !fileExists(sub) {
		t.Fatalf("dry-run 不应移动字幕")
	}
	if !strings.Contains(stderr, "预览：matched=1") {
		t.Fatalf("stderr 缺少预览摘要：%q", stderr)
	}

	stdout, stderr, err = runCLI(t, "rename", "--apply", video, sub)
	if err != nil {
		t.Fatalf("apply 不期望错误：%v\n%s", err, stderr)
	}
	rr = decodeReport(t, stdout)
	if rr.DryRun || rr.Summary.Renamed != 1 {
		t.Fatalf("apply 报告不正确：%+v", rr)
	}
	if fileExists(sub) || !fileExists(filepath.Join(env.root, "Movie.2020.srt")) {
		t.Fatalf("字幕未被重命名")
	}
	if !strings.Contains(stderr, "完成：renamed=1/1 failed=0") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr)
	}
}

func TestRename_TargetExistsExitsNonZero(t *testing.T) {
	env := setupCLI(t)
	video := filepath.Join(env.root, "Movie.mkv")
	sub := filepath.Join(env.root, "movie.eng.srt")
	touch(t, video, "v")
	touch(t, sub, "new")
	touch(t, filepath.Join(env.root, "Movie.srt"), "old")

	stdout, _, err := runCLI(t, "rename", "--apply", video, sub)
	if !errors.Is(err, errHasFailures) {
		t.Fatalf("期望非 0 退出，实际 err=%v", err)
	}
	rr := decodeReport(t, stdout)
	if rr.Validation.Valid || len(rr.Results) != 0 {
		t.Fatalf("预检应阻断执行：%+v", rr)
	}
	b, _ := os.ReadFile(filepath.Join(env.root, "Movie.srt"))
	if string(b) != "old" || !fileExists(sub) {
		t.Fatalf("不应覆盖或移动任何文件")
	}
}

func TestBatch_AddListRenameClears(t *testing.T) {
	env := setupCLI(t)
	lib := filepath.Join(env.root, "lib")
	dl := filepath.Join(env.root, "dl")
	touch(t, filepath.Join(lib, "Show.S01E01.mkv"), "v1")
	touch(t, filepath.Join(lib, "Show.S01E02.mkv"), "v2")
	touch(t, filepath.Join(dl, "show.s01e01.srt"), "s1")
	touch(t, filepath.Join(dl, "show.s01e02.srt"), "s2")
	state := "--state-dir=" + env.stateDir

	// 视频与字幕分两次加入，跨调用累积。
	if _, stderr, err := runCLI(t, state, "batch", "add", lib); err != nil {
		t.Fatalf("batch add 失败：%v\n%s", err, stderr)
	}
	if _, stderr, err := runCLI(t, state, "batch", "add", dl, lib); err != nil {
		t.Fatalf("batch add 失败：%v\n%s", err, stderr)
	}

	stdout, _, err := runCLI(t, state, "batch", "list")
	if err != nil {
		t.Fatalf("batch list 失败：%v", err)
	}
	var b domain.Batch
	if err := json.Unmarshal([]byte(stdout), &b); err != nil {
		t.Fatalf("batch list 不是 JSON：%v", err)
	}
	v, s := b.Counts()
	if v != 2 || s != 2 || len(b.Records) != 4 {
		t.Fatalf("批次内容不正确：%+v", b)
	}

	// 批次里是两条未匹配视频 + 两条未匹配字幕：没有可重命名的配对，但数量规则通过。
	stdout, _, err = runCLI(t, state, "batch", "rename", "--apply")
	if err != nil {
		t.Fatalf("batch rename 失败：%v", err)
	}
	rr := decodeReport(t, stdout)
	if rr.BatchID != b.ID || len(rr.Results) != 0 {
		t.Fatalf("批次报告不正确：%+v", rr)
	}

	stdout, _, _ = runCLI(t, state, "batch", "list")
	var after domain.Batch
	_ = json.Unmarshal([]byte(stdout), &after)
	if len(after.Records) != 0 || after.ID != b.ID {
		t.Fatalf("apply 后应清空批次：%+v", after)
	}
}

func TestBatch_RenameMatchedPairs(t *testing.T) {
	env := setupCLI(t)
	dir := filepath.Join(env.root, "m")
	touch(t, filepath.Join(dir, "Movie.mkv"), "v")
	touch(t, filepath.Join(dir, "movie.eng.srt"), "s")
	state := "--state-dir=" + env.stateDir

	if _, stderr, err := runCLI(t, state, "batch", "add", dir); err != nil {
		t.Fatalf("batch add 失败：%v\n%s", err, stderr)
	}

	// 预览不清空批次。
	if _, _, err := runCLI(t, state, "batch", "rename"); err != nil {
		t.Fatalf("batch rename 预览失败：%v", err)
	}
	stdout, _, _ := runCLI(t, state, "batch", "list")
	var b domain.Batch
	_ = json.Unmarshal([]byte(stdout), &b)
	if len(b.Records) != 1 {
		t.Fatalf("预览后批次应保留：%+v", b)
	}

	stdout, stderr, err := runCLI(t, state, "batch", "rename", "--apply")
	if err != nil {
		t.Fatalf("batch rename 失败：%v\n%s", err, stderr)
	}
	if rr := decodeReport(t, stdout); rr.Summary.Renamed != 1 {
		t.Fatalf("期望改名 1 个：%+v", rr)
	}
	if !fileExists(filepath.Join(dir, "Movie.srt")) {
		t.Fatalf("字幕未被重命名")
	}
}

func TestBatch_RenameApplyWaitsForBatchLock(t *testing.T) {
	env := setupCLI(t)
	dir := filepath.Join(env.root, "m")
	touch(t, filepath.Join(dir, "Movie.mkv"), "v")
	touch(t, filepath.Join(dir, "movie.eng.srt"), "s")
	state := "--state-dir=" + env.stateDir

	if _, stderr, err := runCLI(t, state, "batch", "add", dir); err != nil {
		t.Fatalf("batch add 失败：%v\n%s", err, stderr)
	}

	old := batchLockWait
	batchLockWait = 100 * time.Millisecond
	t.Cleanup(func() { batchLockWait = old })

	// 另一个进程（例如正在执行的 batch add）持有批次锁。
	other := flock.New(filepath.Join(env.stateDir, "batch.lock"))
	if ok, err := other.TryLock(); err != nil || !ok {
		t.Fatalf("测试前置加锁失败：ok=%v err=%v", ok, err)
	}

	_, _, err := runCLI(t, state, "batch", "rename", "--apply")
	if !errors.Is(err, batchstore.ErrLocked) {
		t.Fatalf("期望 ErrLocked，实际：%v", err)
	}
	if fileExists(filepath.Join(dir, "Movie.srt")) || !fileExists(filepath.Join(dir, "movie.eng.srt")) {
		t.Fatalf("拿不到锁时不应移动任何文件")
	}
	stdout, _, _ := runCLI(t, state, "batch", "list")
	var b domain.Batch
	_ = json.Unmarshal([]byte(stdout), &b)
	if len(b.Records) != 1 {
		t.Fatalf("拿不到锁时批次应保留：%+v", b)
	}

	if err := other.Unlock(); err != nil {
		t.Fatalf("释放锁失败：%v", err)
	}
	if _, stderr, err := runCLI(t, state, "batch", "rename", "--apply"); err != nil {
		t.Fatalf("释放锁后 batch rename 应成功：%v\n%s", err, stderr)
	}
	if !fileExists(filepath.Join(dir, "Movie.srt")) {
		t.Fatalf("字幕未被重命名")
	}
}

func TestBatch_RenameRejectsCountMismatch(t *testing.T) {
	env := setupCLI(t)
	touch(t, filepath.Join(env.root, "A.mkv"), "v")
	touch(t, filepath.Join(env.root, "B.mkv"), "v")
	touch(t, filepath.Join(env.root, "a.srt"), "s")
	state := "--state-dir=" + env.stateDir

	if _, _, err := runCLI(t, state, "batch", "add", env.root); err != nil {
		t.Fatalf("batch add 失败：%v", err)
	}
	_, _, err := runCLI(t, state, "batch", "rename", "--apply")
	var be *domain.BatchError
	if !errors.As(err, &be) || be.Code != domain.ErrCodeCountMismatch {
		t.Fatalf("期望 count_mismatch，实际：%v", err)
	}
	if !fileExists(filepath.Join(env.root, "a.srt")) {
		t.Fatalf("检查失败时不应移动文件")
	}
}

func TestBatch_RenameEmpty(t *testing.T) {
	env := setupCLI(t)
	_, _, err := runCLI(t, "--state-dir="+env.stateDir, "batch", "rename")
	var be *domain.BatchError
	if !errors.As(err, &be) || be.Code != domain.ErrCodeBatchEmpty {
		t.Fatalf("期望 batch_empty，实际：%v", err)
	}
}

func TestConfig_InitThenValidate(t *testing.T) {
	env := setupCLI(t)
	p := filepath.Join(env.root, "subrename.toml")

	stdout, _, err := runCLI(t, "config", "init", "--path", p)
	if err != nil {
		t.Fatalf("config init 失败：%v", err)
	}
	if !strings.Contains(stdout, p) {
		t.Fatalf("输出应包含写入路径：%q", stdout)
	}
	if _, _, err := runCLI(t, "config", "init", "--path", p); !errors.Is(err, config.ErrSampleExists) {
		t.Fatalf("重复 init 应拒绝覆盖，实际：%v", err)
	}

	// 工作目录下的 subrename.toml 会被自动发现。
	stdout, _, err = runCLI(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate 失败：%v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("validate 输出不是 JSON：%v", err)
	}
	if got["config_path"] != p || got["threshold"] != config.DefaultThreshold {
		t.Fatalf("生效配置不正确：%v", got)
	}
}

func TestConfig_InvalidFileFailsEveryCommand(t *testing.T) {
	env := setupCLI(t)
	touch(t, filepath.Join(env.root, "subrename.toml"), "threshold = 2\n")

	_, _, err := runCLI(t, "match", env.root)
	if config.Code(err) != config.ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v", config.ErrCodeInvalid, err)
	}
	_, _, err = runCLI(t, "--config", "missing.toml", "config", "validate")
	if config.Code(err) != config.ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v", config.ErrCodeNotFound, err)
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
