package config

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Path: "progression_log.txt",
		},
		Analyze: AnalyzeConfig{
			RateWindowDays: 7,
			TargetPercent:  100,
		},
		OCR: OCRConfig{
			TesseractPath: "tesseract",
			Extensions:    []string{".png", ".jpg", ".jpeg"},
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8750",
		},
		Cache: CacheConfig{
			Enabled: boolPtr(true),
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Log = mergeLogConfig(loaded.Log, defaults.Log)
	result.Analyze = mergeAnalyzeConfig(loaded.Analyze, defaults.Analyze)
	result.OCR = mergeOCRConfig(loaded.OCR, defaults.OCR)
	result.Serve = mergeServeConfig(loaded.Serve, defaults.Serve)

	// Cache enablement is a *bool so an explicit "enabled: false" wins
	// over the enabled-by-default; only an absent key falls back.
	if loaded.Cache.Enabled != nil {
		result.Cache = CacheConfig{Enabled: loaded.Cache.Enabled}
	} else {
		result.Cache = CacheConfig{Enabled: defaults.Cache.Enabled}
	}

	return result
}

func boolPtr(b bool) *bool {
	return &b
}

func mergeLogConfig(loaded, defaults LogConfig) LogConfig {
	result := LogConfig{}

	if loaded.Path != "" {
		result.Path = loaded.Path
	} else {
		result.Path = defaults.Path
	}

	if loaded.BaseYear != 0 {
		result.BaseYear = loaded.BaseYear
	} else {
		result.BaseYear = defaults.BaseYear
	}

	return result
}

func mergeAnalyzeConfig(loaded, defaults AnalyzeConfig) AnalyzeConfig {
	result := AnalyzeConfig{}

	if loaded.RateWindowDays != 0 {
		result.RateWindowDays = loaded.RateWindowDays
	} else {
		result.RateWindowDays = defaults.RateWindowDays
	}

	if loaded.TargetPercent != 0 {
		result.TargetPercent = loaded.TargetPercent
	} else {
		result.TargetPercent = defaults.TargetPercent
	}

	return result
}

func mergeOCRConfig(loaded, defaults OCRConfig) OCRConfig {
	result := OCRConfig{}

	if loaded.TesseractPath != "" {
		result.TesseractPath = loaded.TesseractPath
	} else {
		result.TesseractPath = defaults.TesseractPath
	}

	if len(loaded.Extensions) > 0 {
		result.Extensions = loaded.Extensions
	} else {
		result.Extensions = defaults.Extensions
	}

	return result
}

func mergeServeConfig(loaded, defaults ServeConfig) ServeConfig {
	result := ServeConfig{}

	if loaded.Addr != "" {
		result.Addr = loaded.Addr
	} else {
		result.Addr = defaults.Addr
	}

	return result
}
