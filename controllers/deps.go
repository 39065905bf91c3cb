package controllers

import "civicpulse-be/services"

var (
	pipeline    *services.Intake
	objectStore *services.GridFSStore
)

// Init wires the controllers to their service dependencies. Called once from
// main before routes are registered.
func Init(intake *services.Intake, store *services.GridFSStore) {
	pipeline = intake
	objectStore = store
}
