package screens

import (
	"net/http"

	"github.com/Vianpyro/Penny-Game/internal/game"
	"github.com/Vianpyro/Penny-Game/middlewares"
	"github.com/Vianpyro/Penny-Game/models"
	"github.com/Vianpyro/Penny-Game/penny/actions"
	"github.com/Vianpyro/Penny-Game/penny/broadcast"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ホスト専用のハンドラーは middlewares.HostAuth の後ろに置く

func RoundConfigHandler(c *gin.Context, env *actions.Env, logger *zap.Logger) {
	var request models.RoundConfigRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		bindError(c, logger, err)
		return
	}
	roundType, ok := broadcast.ParseRoundType(request.RoundType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown round_type " + request.RoundType})
		return
	}
	cfg := game.RoundConfig{
		Type:              roundType,
		RequiredPlayers:   request.RequiredPlayers,
		SelectedBatchSize: request.SelectedBatchSize,
	}
	if err := actions.ConfigureRound(env, c.Param("roomID"), middlewares.HostSecret(c), cfg); err != nil {
		respondError(c, logger, err)
		return
	}
	stateResponse(c, env, logger)
}

func StartHandler(c *gin.Context, env *actions.Env, logger *zap.Logger) {
	if err := actions.Start(env, c.Param("roomID"), middlewares.HostSecret(c)); err != nil {
		respondError(c, logger, err)
		return
	}
	stateResponse(c, env, logger)
}

func NextRoundHandler(c *gin.Context, env *actions.Env, logger *zap.Logger) {
	if err := actions.StartNext(env, c.Param("roomID"), middlewares.HostSecret(c)); err != nil {
		respondError(c, logger, err)
		return
	}
	stateResponse(c, env, logger)
}

func ResetHandler(c *gin.Context, env *actions.Env, logger *zap.Logger) {
	if err := actions.Reset(env, c.Param("roomID"), middlewares.HostSecret(c)); err != nil {
		respondError(c, logger, err)
		return
	}
	stateResponse(c, env, logger)
}

// FlipHandler はコインを1枚表にする
func FlipHandler(c *gin.Context, env *actions.Env, logger *zap.Logger) {
	var request models.FlipRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		bindError(c, logger, err)
		return
	}
	index := *request.CoinIndex
	res, err := actions.Flip(c.Request.Context(), env, c.Param("roomID"), request.Username, index)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	view := broadcast.NewActionView(request.Username, "flip", res)
	view.CoinIndex = &index
	c.JSON(http.StatusOK, view)
}

func SendHandler(c *gin.Context, env *actions.Env, logger *zap.Logger) {
	var request models.SendRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		bindError(c, logger, err)
		return
	}
	res, err := actions.Send(c.Request.Context(), env, c.Param("roomID"), request.Username)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, broadcast.NewActionView(request.Username, "send", res))
}

func stateResponse(c *gin.Context, env *actions.Env, logger *zap.Logger) {
	view, err := actions.State(env, c.Param("roomID"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "game_state": view})
}
