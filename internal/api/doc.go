// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (репозиторий, publisher, renderer, метрики)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - workflow_handler.go — обработчики для /workflows
//
// API предоставляет REST endpoints редакторского ядра: CRUD workflows,
// сохранение с оптимистической блокировкой, публикация с полной
// валидацией, реестр переменных, раскладка холста, фрагменты шагов
// и история версий.
package api
