package main

// swaggo API metadata. Regenerate docs/ with:
//
//	swag init -g cmd/whisprd/docs.go -o docs
//
// @title           openwhispr API
// @version         1.0
// @description     HTTP API for the local whisper transcription daemon: whisper-server lifecycle, transcription, model discovery and history.
//
// @contact.name   openwhispr maintainers
// @contact.url    https://github.com/b2tsrl/openwhispr
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
