package config

import (
	"fmt"
	"strings"

	"github.com/doeshing/shai-mongo/internal/domain"
)

// Validate checks value against the schema of key and returns the value to store.
func Validate(key domain.ConfigKey, value interface{}) (interface{}, error) {
	switch key {
	case domain.ConfigProvider:
		return validateProvider(value)
	case domain.ConfigModel:
		return validateModel(value)
	case domain.ConfigIncludeSampleDocs, domain.ConfigParallelRequests:
		return validateBool(key, value)
	case domain.ConfigDefaultCollection:
		return validateCollection(value)
	default:
		return nil, &domain.InvalidKeyError{Key: string(key)}
	}
}

func validateProvider(value interface{}) (interface{}, error) {
	name, ok := value.(string)
	if !ok {
		return nil, &domain.ValidationError{Key: domain.ConfigProvider, Value: value, Reason: "expected string"}
	}
	if _, ok := domain.LookupProvider(domain.ProviderName(name)); !ok {
		return nil, &domain.ValidationError{
			Key:    domain.ConfigProvider,
			Value:  value,
			Reason: fmt.Sprintf("must be one of %s", strings.Join(domain.ProviderNames(), "|")),
		}
	}
	return name, nil
}

func validateModel(value interface{}) (interface{}, error) {
	model, ok := value.(string)
	if !ok {
		return nil, &domain.ValidationError{Key: domain.ConfigModel, Value: value, Reason: "expected string"}
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, &domain.ValidationError{Key: domain.ConfigModel, Value: value, Reason: "must not be empty"}
	}
	return model, nil
}

func validateBool(key domain.ConfigKey, value interface{}) (interface{}, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, &domain.ValidationError{Key: key, Value: value, Reason: "expected boolean"}
	}
	return b, nil
}

func validateCollection(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	default:
		return nil, &domain.ValidationError{Key: domain.ConfigDefaultCollection, Value: value, Reason: "expected string"}
	}
}
