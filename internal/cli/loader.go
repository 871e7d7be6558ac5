package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"

	"github.com/roach88/lockstep/internal/compiler"
	"github.com/roach88/lockstep/internal/ir"
)

// LoadMode controls how errors are handled during program loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the programs and states loaded from a directory.
type LoadResult struct {
	Bundle    *compiler.Bundle
	FileCount int // Number of CUE files found
}

// Programs returns the loaded programs in name order.
func (r *LoadResult) Programs() []*ir.Program {
	names := r.Bundle.ProgramNames()
	out := make([]*ir.Program, len(names))
	for i, name := range names {
		out[i] = r.Bundle.Programs[name]
	}
	return out
}

// LoadError represents an error that occurred during program loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadPrograms compiles every .cue file under dir into one bundle.
// Each file is compiled on its own; program and state names must be unique
// across files.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadPrograms(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("programs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing programs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	result := &LoadResult{
		Bundle:    compiler.NewBundle(),
		FileCount: len(cueFiles),
	}

	for _, path := range cueFiles {
		b, err := compiler.LoadFile(path)
		if err != nil {
			errs = append(errs, convertCompileError(err, path))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		if err := result.Bundle.Merge(b); err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeDuplicate, Message: fmt.Sprintf("%s: %v", path, err)})
			if mode == LoadModeFailFast {
				return result, errs
			}
		}
	}

	// Check if we found anything
	if len(result.Bundle.Programs) == 0 && len(result.Bundle.States) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no programs or states found"})
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: err.Error(),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeLoadFailed,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE file could not be read
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE syntax or evaluation error
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDuplicate   = "E008" // Program or state declared twice

	// Program and state compile errors
	ErrCodeInstructions = "E120" // Missing or empty instruction list
	ErrCodeOpcode       = "E121" // Unknown opcode
	ErrCodeOperand      = "E122" // Missing, unknown or extra register operand
	ErrCodeValue        = "E123" // Malformed bit or label
	ErrCodeUnknownField = "E124" // Field not allowed here
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "cue":
		return ErrCodeBuildFailed
	case "instructions":
		return ErrCodeInstructions
	case "op":
		return ErrCodeOpcode
	case "src1", "src2", "dst":
		return ErrCodeOperand
	case "bit", "label":
		return ErrCodeValue
	case "":
		return ErrCodeGeneric
	default:
		return ErrCodeUnknownField
	}
}
