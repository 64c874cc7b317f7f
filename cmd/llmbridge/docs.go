package main

// General API documentation for swaggo. The registered document lives in
// the docs package; build with -tags=swagger to serve it.
//
// @title           llmbridge API
// @version         1.0
// @description     Development harness for the on-device LLM bridge: model lifecycle and inference.
//
// @contact.name   llmbridge maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
