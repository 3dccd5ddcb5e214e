package registry

import (
	"errors"
	"fmt"
	"formatwave/internal/core/domain"
	"formatwave/internal/core/port"
	"slices"
	"strings"
)

type registry struct {
	specs      []domain.ConversionSpec
	byID       map[string]int
	converters map[string]port.Converter
}

// New builds the registry and binds every spec to its converter.
// A spec whose format pair has no converter fails with domain.ErrUnsupportedConversion.
func New(specs []domain.ConversionSpec, binding port.ConverterBinding) (port.ConversionRegistry, error) {
	r := &registry{
		specs:      make([]domain.ConversionSpec, 0, len(specs)),
		byID:       make(map[string]int, len(specs)),
		converters: make(map[string]port.Converter, len(specs)),
	}

	for _, spec := range specs {
		if spec.ID == "" {
			return nil, errors.New("conversion spec without id")
		}
		if _, ok := r.byID[spec.ID]; ok {
			return nil, fmt.Errorf("%w: conversion %s", domain.ErrAlreadyExists, spec.ID)
		}
		if len(spec.SourceExtensions) == 0 || spec.TargetExtension == "" {
			return nil, fmt.Errorf("conversion %s: missing extensions", spec.ID)
		}

		spec = normalize(spec)

		converter, err := binding.Resolve(spec)
		if err != nil {
			return nil, fmt.Errorf("conversion %s: %w", spec.ID, err)
		}

		r.byID[spec.ID] = len(r.specs)
		r.specs = append(r.specs, spec)
		r.converters[spec.ID] = converter
	}

	return r, nil
}

func normalize(spec domain.ConversionSpec) domain.ConversionSpec {
	exts := make([]string, 0, len(spec.SourceExtensions))
	for _, ext := range spec.SourceExtensions {
		exts = append(exts, strings.TrimPrefix(strings.ToLower(ext), "."))
	}
	spec.SourceExtensions = exts
	spec.SourceFormat = strings.ToLower(spec.SourceFormat)
	spec.TargetFormat = strings.ToLower(spec.TargetFormat)
	spec.TargetExtension = strings.TrimPrefix(strings.ToLower(spec.TargetExtension), ".")
	if spec.Arity == "" {
		spec.Arity = domain.ArityPerFile
	}
	return spec
}

// List returns every spec in catalog order
func (r *registry) List() []domain.ConversionSpec {
	specs := make([]domain.ConversionSpec, 0, len(r.specs))
	for _, spec := range r.specs {
		spec.SourceExtensions = slices.Clone(spec.SourceExtensions)
		specs = append(specs, spec)
	}
	return specs
}

// Lookup finds a spec by id
func (r *registry) Lookup(id string) (domain.ConversionSpec, error) {
	index, ok := r.byID[id]
	if !ok {
		return domain.ConversionSpec{}, fmt.Errorf("%w: %s", domain.ErrUnknownConversion, id)
	}
	spec := r.specs[index]
	spec.SourceExtensions = slices.Clone(spec.SourceExtensions)
	return spec, nil
}

// Converter returns the converter bound to a spec
func (r *registry) Converter(id string) (port.Converter, error) {
	converter, ok := r.converters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownConversion, id)
	}
	return converter, nil
}
