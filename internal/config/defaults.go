package config

const (
	defaultDatasetDir         = "~/datasets/cocohumanparts"
	defaultLogDir             = "~/.local/share/humanparts/logs"
	defaultRemoteBaseURL      = "https://huggingface.co/datasets/testdummyvt/cocohumanparts/resolve/main"
	defaultFetchConcurrency   = 2
	defaultFetchTimeout       = 3600
	defaultFetchUserAgent     = "humanparts/dev"
	defaultCategoryVariant    = "parts7"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	datasetDirEnv             = "HUMANPARTS_DATASET_DIR"
	categoryVariantParts7     = "parts7"
	categoryVariantFused5     = "fused5"
	maxFetchConcurrency       = 32
	defaultMSCOCOTrainURL     = "http://images.cocodataset.org/zips/train2017.zip"
	defaultMSCOCOValURL       = "http://images.cocodataset.org/zips/val2017.zip"
	defaultMSCOCOTestURL      = "http://images.cocodataset.org/zips/test2017.zip"
	defaultMSCOCOYOLOLabelURL = "https://github.com/ultralytics/assets/releases/download/v0.0.0/coco2017labels.zip"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DatasetDir: defaultDatasetDir,
			LogDir:     defaultLogDir,
		},
		Remote: Remote{
			BaseURL:    defaultRemoteBaseURL,
			MSCOCOURLs: defaultMSCOCOURLs(),
		},
		Fetch: Fetch{
			Concurrency:    defaultFetchConcurrency,
			Unzip:          true,
			DeleteArchive:  true,
			TimeoutSeconds: defaultFetchTimeout,
			UserAgent:      defaultFetchUserAgent,
			Progress:       true,
		},
		Categories: Categories{
			Variant: defaultCategoryVariant,
		},
		Fuse: Fuse{
			COCO: defaultCOCOFuseRules(),
			YOLO: defaultYOLOFuseRules(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultMSCOCOURLs() []string {
	return []string{defaultMSCOCOTrainURL, defaultMSCOCOValURL, defaultMSCOCOTestURL, defaultMSCOCOYOLOLabelURL}
}

// COCO ids are 1-based with person at 1; YOLO class ids are the same table shifted by one.
func defaultCOCOFuseRules() []Rule {
	return []Rule{{From: 5, To: 4}, {From: 6, To: 5}, {From: 7, To: 5}}
}

func defaultYOLOFuseRules() []Rule {
	return []Rule{{From: 4, To: 3}, {From: 5, To: 4}, {From: 6, To: 4}}
}
