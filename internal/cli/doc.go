// Package cli реализует инструмент командной строки Flowboard.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Flowboard API.
// Работает через HTTP, не импортирует внутренние пакеты сервера.
// CLI используется для управления workflows: создание, сохранение,
// публикация, просмотр переменных, раскладки и истории версий.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Flowboard API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок. Конфликт версий при сохранении возвращается
// как *ErrConflict с серверной версией и автором.
//
//	client := cli.NewClient("http://localhost:8080")
//	workflows, err := client.ListWorkflows()
//
// ## Output
//
// Форматирование вывода. Поддерживает три режима (--output):
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — для pipe в jq
//   - YAML — для экспорта и чтения глазами
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: flowboard workflow list --output json | jq .
//
// ## Commands
//
// Cobra-команды:
//   - workflow: list, create, show, delete, save, publish,
//     variables, layout, versions, export, import
//
// Группа создаётся через фабричную функцию (NewWorkflowCmd),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
