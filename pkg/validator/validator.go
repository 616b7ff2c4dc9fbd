package validator

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

func All(errors ...error) error {
	for _, err := range errors {
		if err != nil {
			return err
		}
	}
	return nil
}

func Map[T any](items []T, f func(T, string) error, description string) error {
	for i, item := range items {
		if err := f(item, fmt.Sprintf("%s[%d]", description, i)); err != nil {
			return err
		}
	}
	return nil
}

func MapDict[T any](items map[string]T, f func(string, T) error, description string) error {
	for key, item := range items {
		if err := f(key, item); err != nil {
			return err
		}
	}
	return nil
}

func NotEmpty(field, description string) error {
	if field == "" {
		return fmt.Errorf("%s must not be empty", description)
	}
	return nil
}

func NoDuplicates[T comparable](slice []T, description string) error {
	seen := make(map[T]struct{})
	for _, v := range slice {
		if _, ok := seen[v]; ok {
			return fmt.Errorf("%s contains duplicate value: %v", description, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

func HasNoTemplateTags(field string, description string) error {
	if field != "" && (strings.Contains(field, "{{") || strings.Contains(field, "{%")) {
		return fmt.Errorf("%s must not contain template tags", description)
	}
	return nil
}

func Positive(field int, description string) error {
	if field <= 0 {
		return fmt.Errorf("%s must be positive, got %d", description, field)
	}
	return nil
}

func DirExists(path, description string) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", description, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%s: %s is not a directory", description, path)
	}
	return nil
}

func URL(field, description string) error {
	u, err := url.Parse(field)
	if err != nil {
		return fmt.Errorf("%s: %w", description, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL, got %q", description, field)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", description, field)
	}
	return nil
}
