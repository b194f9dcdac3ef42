package main

import (
	"fmt"
	"os"

	"github.com/venicegeo/bf-scene-catalog/util"
)

func main() {
	if err := util.LoadEnvFile(os.Getenv("ENV_FILE")); err != nil {
		util.LogAlert(&util.BasicLogContext{}, fmt.Sprintf("Could not load env file: %v", err))
	}
	util.LogAudit(&util.BasicLogContext{}, util.LogAuditInput{Actor: "main()", Action: "startup", Actee: "self", Message: "Application Startup", Severity: util.INFO})
	err := createCliApp().Run(os.Args)
	if err != nil {
		util.LogAlert(&util.BasicLogContext{}, fmt.Sprintf("Error executing CLI app: %v", err))
		os.Exit(1)
	}
}
