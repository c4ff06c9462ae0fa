package handler

type HandlerSetting struct {
	ArtifactRoot string
	// UploadDir receives sheets posted to /admin/infer
	UploadDir string
	// input_path and output_path of /admin/infer must stay under these
	InputDir  string
	OutputDir string
}

var globalSetting HandlerSetting

func Init(setting *HandlerSetting) {
	globalSetting = *setting
}
