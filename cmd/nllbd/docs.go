package main

// General API documentation for swaggo. Run `make swagger-gen` to regenerate docs/.
//
// @title           nllbd API
// @version         1.0
// @description     Serverless NLLB translation worker.
//
// @contact.name   nllbd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
