// Package session реализует сессию совместного редактирования workflow:
// debounce-автосохранение, машину состояний Ready → Saving → {Saved,
// Conflict, Error} → Ready, оптимистическую блокировку по версии и
// обработку удалённых сохранений других клиентов.
//
// Сессия отправляет только самый свежий полный снапшот буфера правок
// и не ведёт очередь повторов: после транспортного сбоя следующая
// правка перезапускает цикл с нуля.
package session
