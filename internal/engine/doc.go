// Package engine содержит ядро модели workflow-редактора:
//
//   - condition.go — язык условных выражений decision-шагов:
//     разбор, каноническая сборка, вычисление на привязках переменных
//   - registry.go — реестр типизированных переменных, выводимых из
//     question-шагов, с кэшем по ревизии графа
//   - graph.go — StepGraph: упорядоченные шаги, вывод множества рёбер,
//     висячие ссылки
//   - validate.go — терпимая черновая и строгая публикационная валидация
//   - route.go — маршрутизация decision-шагов по условиям
//
// Пакет не знает о персистентности и транспорте: он работает с
// domain.Workflow в памяти и используется сессией, API и репозиторием.
package engine
