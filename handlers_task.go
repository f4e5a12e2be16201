package main

import (
	"net/http"

	"finboard/models"
	"finboard/pkg/auth"

	"github.com/gin-gonic/gin"
)

const msgTaskNotFound = "task not found"

func (s *server) listTasksHandler(c *gin.Context, id auth.Identity) {
	tasks, err := s.store.ListTasks(c.Request.Context(), id.UserID)
	if err != nil {
		s.respondError(c, storeError(err, msgTaskNotFound))
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *server) getTaskHandler(c *gin.Context, id auth.Identity) {
	taskID, err := pathID(c, "task")
	if err != nil {
		s.respondError(c, err)
		return
	}
	task, err := s.store.GetTask(c.Request.Context(), id.UserID, taskID)
	if err != nil {
		s.respondError(c, storeError(err, msgTaskNotFound))
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *server) createTaskHandler(c *gin.Context, id auth.Identity) {
	var req taskRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	if err := req.Validate(true); err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.ensureAccount(c, id.UserID, req.AccountID); err != nil {
		s.respondError(c, err)
		return
	}
	task := req.task(id.UserID)
	if err := s.store.CreateTask(c.Request.Context(), task); err != nil {
		s.respondError(c, storeError(err, msgTaskNotFound))
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *server) updateTaskHandler(c *gin.Context, id auth.Identity) {
	taskID, err := pathID(c, "task")
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req taskRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	if err := req.Validate(false); err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.ensureAccount(c, id.UserID, req.AccountID); err != nil {
		s.respondError(c, err)
		return
	}
	task, err := s.store.UpdateTask(c.Request.Context(), id.UserID, taskID, req.update())
	if err != nil {
		s.respondError(c, storeError(err, msgTaskNotFound))
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *server) deleteTaskHandler(c *gin.Context, id auth.Identity) {
	taskID, err := pathID(c, "task")
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), id.UserID, taskID); err != nil {
		s.respondError(c, storeError(err, msgTaskNotFound))
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "task deleted"})
}

// toggleTaskHandler flips completed in one atomic update.
func (s *server) toggleTaskHandler(c *gin.Context, id auth.Identity) {
	taskID, err := pathID(c, "task")
	if err != nil {
		s.respondError(c, err)
		return
	}
	task, err := s.store.ToggleTask(c.Request.Context(), id.UserID, taskID)
	if err != nil {
		s.respondError(c, storeError(err, msgTaskNotFound))
		return
	}
	c.JSON(http.StatusOK, task)
}
