// Package worker receives document lifecycle reports from per-document
// worker processes.
//
// Each worker holds one WebSocket connection to the master for its lifetime.
// The first frame announces the worker ("hello <pid>"); subsequent frames
// report views opening and closing ("open <path>", "close <path>") and drive
// the session registry directly. A dropped connection is treated as an
// implicit close of every view the worker was hosting.
//
// The feed also implements the admin kill command: killing a pid closes that
// worker's socket, which funnels into the same disconnect path.
package worker
