package domain

const (
	ErrCodeSourceNotFound   = "source_not_found"
	ErrCodeTargetExists     = "target_exists"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeOSFailure        = "os_failure"
)

// RenameResult 是单个字幕重命名尝试的结果，只在本次批次内有效。
type RenameResult struct {
	OriginalPath string `json:"original_path"`
	TargetPath   string `json:"target_path"`
	Succeeded    bool   `json:"succeeded"`
	ErrorCode    string `json:"error_code"`
	ErrorMsg     string `json:"error_msg"`
}

// ValidationReport 是执行前的预检结果。Valid=false 当且仅当 Errors 非空。
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

func NewValidationReport() ValidationReport {
	return ValidationReport{Valid: true, Warnings: []string{}, Errors: []string{}}
}

func (v *ValidationReport) Warn(msg string) {
	v.Warnings = append(v.Warnings, msg)
}

func (v *ValidationReport) Fail(msg string) {
	v.Errors = append(v.Errors, msg)
	v.Valid = false
}
