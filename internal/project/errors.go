package project

import "fmt"

// ConfigurationError is a project file that could not be found or loaded.
type ConfigurationError struct {
	File string
	Msg  string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.File == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NoSuchServiceError is a service name the project does not declare.
type NoSuchServiceError struct {
	Project string
	Name    string
}

func (e *NoSuchServiceError) Error() string {
	return fmt.Sprintf("No such service: %s", e.Name)
}
